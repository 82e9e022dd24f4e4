package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/helpdesk/internal/model"
)

// TicketServiceInterface はチケットハンドラーが必要とするサービスインターフェース。
type TicketServiceInterface interface {
	// Create は新しいチケットを作成し、チケットIDを返す。
	Create(ctx context.Context, product, discordEmail string) (string, error)
	// Get はチケットを取得する。
	Get(ctx context.Context, id string) (*model.Ticket, error)
	// AppendMessage はチケットにメッセージを追記し、保存したメッセージを返す。
	AppendMessage(ctx context.Context, id, author, text string) (model.Message, error)
}

// TicketMetrics はチケット操作のメトリクス記録インターフェース。
type TicketMetrics interface {
	RecordTicketCreated()
	RecordMessageAppended()
}

// TicketHandler はサポートチケットのHTTPハンドラー。
type TicketHandler struct {
	service TicketServiceInterface
	metrics TicketMetrics
}

// NewTicketHandler はTicketHandlerを生成する。metricsはnilでもよい。
func NewTicketHandler(service TicketServiceInterface, metrics TicketMetrics) *TicketHandler {
	return &TicketHandler{
		service: service,
		metrics: metrics,
	}
}

// createTicketRequest はチケット作成リクエストのボディ。
type createTicketRequest struct {
	Product      string `json:"product"`
	DiscordEmail string `json:"discordEmail"`
}

// appendMessageRequest はメッセージ追記リクエストのボディ。
type appendMessageRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// createTicketResponse はチケット作成のレスポンス。
type createTicketResponse struct {
	Success  bool   `json:"success"`
	TicketID string `json:"ticketId"`
}

// getTicketResponse はチケット取得のレスポンス。
type getTicketResponse struct {
	Success bool          `json:"success"`
	Ticket  *model.Ticket `json:"ticket"`
}

// Create はチケット作成を処理する。
// POST /tickets/create
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, model.NewMissingTicketFieldError().Message)
		return
	}

	if req.Product == "" || req.DiscordEmail == "" {
		writeErrorResponse(w, http.StatusBadRequest, model.NewMissingTicketFieldError().Message)
		return
	}

	ticketID, err := h.service.Create(r.Context(), req.Product, req.DiscordEmail)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordTicketCreated()
	}
	writeJSON(w, http.StatusOK, createTicketResponse{
		Success:  true,
		TicketID: ticketID,
	})
}

// Get はチケット取得を処理する。
// GET /tickets/{id}
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ticket, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, getTicketResponse{
		Success: true,
		Ticket:  ticket,
	})
}

// AppendMessage はチケットへのメッセージ追記を処理する。
// POST /tickets/{id}/message
func (h *TicketHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req appendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, model.NewMissingMessageFieldError().Message)
		return
	}

	if req.Text == "" || req.Author == "" {
		writeErrorResponse(w, http.StatusBadRequest, model.NewMissingMessageFieldError().Message)
		return
	}

	if _, err := h.service.AppendMessage(r.Context(), id, req.Author, req.Text); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordMessageAppended()
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
