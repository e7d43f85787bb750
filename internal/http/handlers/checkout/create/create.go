// Package create реализует HTTP-обработчик оформления покупки подписки.
//
// Handler принимает JSON-запрос с данными покупателя и планом, валидирует
// их, вызывает оркестратор оформления и возвращает итог попытки:
// созданную связку подписки либо причину блокировки.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/provaplus/checkout-provisioner/internal/http/response"
	"github.com/provaplus/checkout-provisioner/internal/lib/sl"
	"github.com/provaplus/checkout-provisioner/internal/models"
)

// Request описывает входящий запрос на оформление покупки.
// AttemptUID опционален: без него каждая попытка считается новой,
// повтор с тем же значением не создаст вторую связку.
type Request struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"omitempty,min=8"`
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone"`
	TaxID      string `json:"tax_id"`
	PlanID     int    `json:"plan_id" validate:"required,gt=0"`
	AttemptUID string `json:"attempt_uid" validate:"omitempty,uuid"`
}

// Handler управляет HTTP-запросами на оформление покупки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс оркестратора оформления покупки.
type Service interface {
	Run(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Оформить покупку подписки
// @Description Создает или находит учётную запись покупателя и связку
// @Description подписки, ожидающую оплаты. При блокировке возвращает причину.
// @Tags Checkout
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные покупки"
// @Success 200 {object} response.Response "Итог попытки оформления"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при оформлении"
// @Router /checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if req.AttemptUID == "" {
		req.AttemptUID = uuid.NewString()
	}
	log.Info("checkout request accepted",
		slog.String("attempt_uid", req.AttemptUID),
		slog.Int("plan_id", req.PlanID))

	result, err := h.service.Run(r.Context(), models.CheckoutRequest{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Phone:      req.Phone,
		TaxID:      req.TaxID,
		PlanID:     req.PlanID,
		AttemptUID: req.AttemptUID,
	})
	if err != nil {
		log.Error("failed to process checkout", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process checkout"))
		return
	}

	if !result.Success {
		log.Info("checkout blocked", slog.String("reason", result.Reason))
		render.JSON(w, r, response.OKWithData(map[string]any{
			"success": false,
			"reason":  result.Reason,
		}))
		return
	}

	log.Info("checkout completed",
		slog.String("account_uid", result.AccountUID),
		slog.Int("subscription_id", result.SubscriptionID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"success":         true,
		"account_uid":     result.AccountUID,
		"subscription_id": result.SubscriptionID,
		"attempt_uid":     req.AttemptUID,
	}))
}
