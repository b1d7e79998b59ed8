package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
	"github.com/magabrotheeeer/trading-signals/internal/models"
)

// MsgPlanRequired ответ пользователю без действующего тарифа.
const MsgPlanRequired = "active plan required"

// PlanChecker определяет, действует ли у пользователя тариф.
type PlanChecker interface {
	HasActivePlan(ctx context.Context, uid string) (bool, error)
}

// RequireAdmin пропускает только пользователей с ролью admin.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, role := UserFromContext(r.Context())
			if role != models.RoleAdmin {
				log.Warn("admin route denied",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("user_uid", uid))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePlan пропускает администраторов и пользователей с действующим тарифом.
func RequirePlan(log *slog.Logger, checker PlanChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := log.With(slog.String("request_id", middleware.GetReqID(r.Context())))

			uid, role := UserFromContext(r.Context())
			if uid == "" {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}
			if role == models.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			active, err := checker.HasActivePlan(r.Context(), uid)
			if err != nil {
				log.Error("failed to get plan status", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			if !active {
				log.Info("no active plan, access denied", slog.String("user_uid", uid))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error(MsgPlanRequired))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
