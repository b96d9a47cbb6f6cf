package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/tradeauth/domain"
)

// IdentityHandlers serves back-office identity lookups
type IdentityHandlers struct {
	identities domain.IdentityRepository
	logger     *slog.Logger
}

// NewIdentityHandlers creates new identity handlers
func NewIdentityHandlers(identities domain.IdentityRepository, logger *slog.Logger) *IdentityHandlers {
	return &IdentityHandlers{identities: identities, logger: logger}
}

// Lookup lists every store row holding the given email or phone, in
// resolution order
func (h *IdentityHandlers) Lookup(c *gin.Context) {
	identifier := domain.NormalizeIdentifier(c.Query("identifier"))

	var email, phone string
	switch domain.DetectIdentifier(identifier) {
	case domain.IdentifierEmail:
		email = identifier
	case domain.IdentifierPhone:
		phone = identifier
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier must be an email or phone number"})
		return
	}

	matches, err := h.identities.FindMatches(c.Request.Context(), email, phone)
	if err != nil {
		writeError(c, h.logger, err, "Failed to look up identity")
		return
	}

	out := make([]gin.H, 0, len(matches))
	for _, m := range matches {
		view := identityView(m)
		view["linked_id"] = m.LinkedID
		view["credential_format"] = m.Credential.Format
		out = append(out, view)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
