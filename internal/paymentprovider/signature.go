package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader заголовок с подписью вебхука.
const SignatureHeader = "x-paystack-signature"

// Sign вычисляет hex(HMAC-SHA512(body)) секретным ключом.
func (c *Client) Sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature проверяет подпись тела вебхука.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.secretKey == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(c.Sign(body)), []byte(signature))
}
