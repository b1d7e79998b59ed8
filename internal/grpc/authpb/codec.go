// Package authpb описывает контракт gRPC-сервиса авторизации: сообщения,
// дескриптор сервиса и клиент. Сообщения передаются в JSON через кодек CodecName.
package authpb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName content-subtype, под которым зарегистрирован JSON-кодек.
const CodecName = "json"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(codec{})
}
