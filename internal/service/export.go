package service

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/Iamregulus/Group-savings-app/internal/middleware"
	"github.com/Iamregulus/Group-savings-app/internal/models"
	"github.com/Iamregulus/Group-savings-app/internal/savings"
)

var exportHeader = []string{
	"id", "date", "group", "user_id", "type", "status", "amount",
	"payment_method", "reference_number", "description", "approved_by", "remarks",
}

// ExportHandler streams transactions as CSV. Query parameters group_id,
// user_id and type narrow the export. It must be mounted behind
// middleware.RequireAuthHTTP.
type ExportHandler struct {
	core   *savings.Service
	logger *slog.Logger
}

func NewExportHandler(core *savings.Service, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{core: core, logger: logger}
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	rows, err := h.core.ExportTransactions(ctx, actorFrom(ctx), savings.ExportFilter{
		GroupID: q.Get("group_id"),
		UserID:  q.Get("user_id"),
		Type:    models.TransactionType(q.Get("type")),
	})
	if err != nil {
		code := codeOf(err)
		msg := err.Error()
		if code == connect.CodeInternal {
			h.logger.Error("Export failed", "user_id", middleware.GetUserID(ctx), "error", err)
			msg = errInternal.Error()
		}
		http.Error(w, msg, httpStatus(code))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, row := range rows {
		_ = cw.Write([]string{
			row.ID,
			time.Unix(row.CreatedAt, 0).UTC().Format(time.RFC3339),
			row.GroupName,
			row.UserID,
			string(row.Type),
			string(row.Status),
			money(row.Amount),
			row.PaymentMethod,
			row.ReferenceNumber,
			row.Description,
			row.ApprovedBy,
			row.Remarks,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Warn("Export write failed", "error", err)
		return
	}

	h.logger.Info("Transactions exported", "user_id", middleware.GetUserID(ctx), "rows", len(rows))
}

func httpStatus(code connect.Code) int {
	switch code {
	case connect.CodeNotFound:
		return http.StatusNotFound
	case connect.CodePermissionDenied:
		return http.StatusForbidden
	case connect.CodeInvalidArgument:
		return http.StatusBadRequest
	case connect.CodeFailedPrecondition, connect.CodeAlreadyExists:
		return http.StatusConflict
	case connect.CodeResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
