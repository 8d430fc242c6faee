package api

import (
	"net/http"

	"github.com/Domenick1991/busbooking/internal/service/feedback"
	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	feedback feedback.FeedbackUseCase
}

func NewFeedbackHandler(feedback feedback.FeedbackUseCase) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

func (h *FeedbackHandler) Register(router *gin.RouterGroup) {
	router.POST("/complaints", h.complaint)
	router.POST("/refund/:booking_id", h.refund)
}

func (h *FeedbackHandler) complaint(c *gin.Context) {
	var req feedback.ComplaintInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	complaint, err := h.feedback.SubmitComplaint(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

func (h *FeedbackHandler) refund(c *gin.Context) {
	bookingID, err := paramID(c, "booking_id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req feedback.RefundInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	refund, err := h.feedback.RequestRefund(c.Request.Context(), actorFrom(c), bookingID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, refund)
}
