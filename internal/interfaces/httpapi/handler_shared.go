package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/kickoff-dashboard/external/footballapi"
	"github.com/riskibarqy/kickoff-dashboard/internal/domain/season"
	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
	"github.com/riskibarqy/kickoff-dashboard/internal/usecase"
)

type Handler struct {
	dashboardService *usecase.DashboardService
	readinessService *usecase.ReadinessService
	footballAPI      *footballapi.Client
	dashboardURL     string
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	dashboardService *usecase.DashboardService,
	readinessService *usecase.ReadinessService,
	footballAPI *footballapi.Client,
	dashboardURL string,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	v := validator.New()
	if err := v.RegisterValidation("season", func(fl validator.FieldLevel) bool {
		return season.Season(fl.Field().String()).Valid()
	}); err != nil {
		panic(fmt.Sprintf("register season validation: %v", err))
	}

	return &Handler{
		dashboardService: dashboardService,
		readinessService: readinessService,
		footballAPI:      footballAPI,
		dashboardURL:     dashboardURL,
		logger:           logger,
		validator:        v,
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// queries opens a per-request view of the football API with the caller's
// credentials. Results are memoised in the request cache installed upstream.
func (h *Handler) queries(r *http.Request) *usecase.Queries {
	session := h.footballAPI.Session(credentialsFromRequest(r))
	return usecase.NewQueries(session, h.notFound(r.Context()))
}

func (h *Handler) notFound(ctx context.Context) usecase.NotFoundFunc {
	return func(resource string, err error) error {
		h.logger.InfoContext(ctx, "upstream resource not found", "resource", resource, "request_id", requestIDFromContext(ctx))
		return usecase.DefaultNotFound(resource, err)
	}
}

type fixturesQuery struct {
	Season   string `validate:"omitempty,season"`
	Gameweek int    `validate:"omitempty,gte=1,lte=38"`
	TeamID   int64  `validate:"omitempty,gt=0"`
}

func (q fixturesQuery) filter() usecase.FixturesFilter {
	return usecase.FixturesFilter{
		Season:   season.Season(q.Season),
		Gameweek: q.Gameweek,
		TeamID:   q.TeamID,
	}
}

// firstParam returns the first non-empty query value among keys.
func firstParam(r *http.Request, keys ...string) string {
	values := r.URL.Query()
	for _, key := range keys {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

func parseOptionalInt(name, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return v, nil
}

func parseOptionalInt64(name, raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return v, nil
}
