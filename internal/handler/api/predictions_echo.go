package api

import (
	"errors"
	"strings"
	"time"

	models "BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	"BlockCast/internal/services/blocks"
	"BlockCast/internal/usecase"
	xhttp "BlockCast/pkg/http"
	xlogger "BlockCast/pkg/logger"
	"BlockCast/pkg/queue"
	"BlockCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// PredictionsEchoHandler exposes generation, verification and reporting over HTTP.
type PredictionsEchoHandler struct {
	logger   *xlogger.Logger
	generate *usecase.GenerateUseCase
	verify   *usecase.VerifyUseCase
	accuracy *usecase.AccuracyUseCase
	store    domrepo.PredictionStore
	jobs     queue.Enqueuer
}

// NewPredictionsEchoHandler builds the handler. jobs may be nil when the
// background queue is disabled; the /jobs routes then answer 503.
func NewPredictionsEchoHandler(
	logger *xlogger.Logger,
	generate *usecase.GenerateUseCase,
	verify *usecase.VerifyUseCase,
	accuracy *usecase.AccuracyUseCase,
	store domrepo.PredictionStore,
	jobs queue.Enqueuer,
) *PredictionsEchoHandler {
	return &PredictionsEchoHandler{
		logger:   logger,
		generate: generate,
		verify:   verify,
		accuracy: accuracy,
		store:    store,
		jobs:     jobs,
	}
}

func (h *PredictionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/predictions/generate", h.GenerateHour)
	g.POST("/predictions/generate-day", h.GenerateDay)
	g.POST("/predictions/verify", h.Verify)
	g.GET("/predictions", h.List)
	g.GET("/predictions/accuracy", h.Accuracy)
	g.POST("/jobs/generate-day", h.EnqueueGenerateDay)
	g.POST("/jobs/verify", h.EnqueueVerify)
}

func (h *PredictionsEchoHandler) GenerateHour(c echo.Context) error {
	req := &models.GenerateHourRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	hour, err := util.ParseHour(req.Hour)
	if err != nil {
		return xhttp.AppErrorResponse(c, fieldError("hour", err))
	}

	pred, err := h.generate.GenerateHour(c.Request().Context(), normalizeTicker(req.Ticker), hour)
	if err != nil {
		return xhttp.AppErrorResponse(c, h.mapError(err))
	}
	return xhttp.CreatedResponse(c, pred)
}

func (h *PredictionsEchoHandler) GenerateDay(c echo.Context) error {
	req := &models.GenerateDayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := util.ParseDate(req.Date)
	if err != nil {
		return xhttp.AppErrorResponse(c, fieldError("date", err))
	}

	res, err := h.generate.GenerateDay(c.Request().Context(), normalizeTicker(req.Ticker), date)
	if err != nil {
		return xhttp.AppErrorResponse(c, h.mapError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictionsEchoHandler) Verify(c echo.Context) error {
	req := &models.VerifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.verify.VerifyPending(c.Request().Context(), time.Duration(req.OlderThanMinutes)*time.Minute, req.Limit)
	if err != nil {
		return xhttp.AppErrorResponse(c, h.mapError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictionsEchoHandler) List(c echo.Context) error {
	req := &models.ListPredictionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	f, appErr := filterFor(req.Ticker, req.From, req.To)
	if appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}
	rows, err := usecase.ListPredictions(c.Request().Context(), h.store, f)
	if err != nil {
		return xhttp.AppErrorResponse(c, h.mapError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *PredictionsEchoHandler) Accuracy(c echo.Context) error {
	req := &models.AccuracyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	f, appErr := filterFor(req.Ticker, req.From, req.To)
	if appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}
	rep, err := h.accuracy.Report(c.Request().Context(), f, models.BucketBy(req.BucketBy))
	if err != nil {
		return xhttp.AppErrorResponse(c, h.mapError(err))
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *PredictionsEchoHandler) EnqueueGenerateDay(c echo.Context) error {
	req := &models.GenerateDayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if _, err := util.ParseDate(req.Date); err != nil {
		return xhttp.AppErrorResponse(c, fieldError("date", err))
	}
	return h.enqueue(c, usecase.JobGenerateDay, usecase.GenerateDayPayload{
		Ticker: normalizeTicker(req.Ticker),
		Date:   req.Date,
	})
}

func (h *PredictionsEchoHandler) EnqueueVerify(c echo.Context) error {
	req := &models.VerifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.enqueue(c, usecase.JobVerifyPending, usecase.VerifyPendingPayload{
		OlderThanMinutes: req.OlderThanMinutes,
		Limit:            req.Limit,
	})
}

func (h *PredictionsEchoHandler) enqueue(c echo.Context, jobType string, payload interface{}) error {
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("background queue is disabled"))
	}
	id, err := h.jobs.Enqueue(c.Request().Context(), jobType, payload)
	if err != nil {
		h.logger.Error("enqueue failed", xlogger.String("type", jobType), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("could not enqueue job").WithError(err))
	}
	return xhttp.AcceptedResponse(c, map[string]string{"job_id": id, "type": jobType})
}

// mapError turns use-case errors into HTTP application errors.
func (h *PredictionsEchoHandler) mapError(err error) *xhttp.AppError {
	var nd *blocks.NotDueError
	switch {
	case errors.As(err, &nd):
		return xhttp.ConflictError("ERR_NOT_DUE", err.Error()).WithParam("until", nd.Until.UTC().Format(time.RFC3339Nano))
	case errors.Is(err, domrepo.ErrPredictionExists):
		return xhttp.ConflictError("ERR_EXISTS", "prediction already exists")
	case errors.Is(err, usecase.ErrMarketClosed):
		return xhttp.UnprocessableError("ERR_MARKET_CLOSED", err.Error())
	case errors.Is(err, usecase.ErrInvalidHour):
		return xhttp.BadRequestError(err.Error())
	case errors.Is(err, blocks.ErrPrecondition):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", err.Error())
	case errors.Is(err, domrepo.ErrPredictionNotFound):
		return xhttp.NotFoundError("prediction not found")
	default:
		h.logger.Error("predictions usecase error", xlogger.Error(err))
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

func fieldError(field string, err error) *xhttp.AppError {
	e := xhttp.BadRequestError(err.Error())
	e.Field = field
	return e
}

func filterFor(ticker, from, to string) (domrepo.PredictionFilter, *xhttp.AppError) {
	f := domrepo.PredictionFilter{Ticker: normalizeTicker(ticker)}
	if from != "" {
		t, ok := util.ParseTime(from)
		if !ok {
			return f, fieldError("from", errors.New("from must be RFC3339 or unix seconds"))
		}
		f.From = t.UTC()
	}
	if to != "" {
		t, ok := util.ParseTime(to)
		if !ok {
			return f, fieldError("to", errors.New("to must be RFC3339 or unix seconds"))
		}
		f.To = t.UTC()
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return f, fieldError("from", errors.New("from must be before to"))
	}
	return f, nil
}

func normalizeTicker(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

var _ xhttp.Handler = (*PredictionsEchoHandler)(nil)
