package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "garage-advisor/internal/common/errors"
	"garage-advisor/internal/common/validation"
	"garage-advisor/internal/models"
	"garage-advisor/internal/places"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type regionsResponse struct {
	Regions []places.Region `json:"regions"`
}

type searchResponse struct {
	SessionID string                `json:"sessionId"`
	Status    string                `json:"status"`
	Source    models.SourceKind     `json:"source,omitempty"`
	Garages   []models.RankedGarage `json:"garages"`
}

type diagnoseResponse struct {
	Diagnosis string                    `json:"diagnosis"`
	Sections  []models.DiagnosisSection `json:"sections"`
}

func (s *Server) listRegions(c *gin.Context) {
	c.JSON(http.StatusOK, regionsResponse{Regions: s.registry.All()})
}

func (s *Server) searchGarages(c *gin.Context) {
	var payload models.SearchRequestPayload
	if err := decodeValidated(c, validation.SearchRequest, &payload); err != nil {
		s.writeError(c, err)
		return
	}

	sessionID := sessionIDFor(c)
	garages, err := s.searches.Search(c.Request.Context(), sessionID, payload.Normalize())
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeGarages(c, sessionID, garages)
}

func (s *Server) retrySearch(c *gin.Context) {
	sessionID := c.GetHeader(SessionHeader)
	if sessionID == "" {
		s.writeError(c, apperrors.NewNoPreviousSearchError())
		return
	}
	c.Header(SessionHeader, sessionID)

	garages, err := s.searches.Retry(c.Request.Context(), sessionID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeGarages(c, sessionID, garages)
}

func (s *Server) clearSession(c *gin.Context) {
	if sessionID := c.GetHeader(SessionHeader); sessionID != "" {
		s.searches.Clear(sessionID)
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) diagnose(c *gin.Context) {
	var req models.DiagnosisRequest
	if err := decodeValidated(c, validation.DiagnosisRequest, &req); err != nil {
		s.writeError(c, err)
		return
	}

	diag, err := s.diagnoser.Diagnose(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, diagnoseResponse{Diagnosis: diag.Text, Sections: diag.Sections})
}

func (s *Server) writeGarages(c *gin.Context, sessionID string, garages []models.RankedGarage) {
	status := statusOK
	if len(garages) == 0 {
		status = statusNoResults
		garages = []models.RankedGarage{}
	}
	c.JSON(http.StatusOK, searchResponse{
		SessionID: sessionID,
		Status:    status,
		Source:    s.opts.Source,
		Garages:   garages,
	})
}

// sessionIDFor returns the caller's session, minting one when the header is absent.
func sessionIDFor(c *gin.Context) string {
	id := c.GetHeader(SessionHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(SessionHeader, id)
	return id
}

// decodeValidated checks the raw body against schema before decoding it into out.
func decodeValidated(c *gin.Context, schema *validation.Schema, out interface{}) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.NewInvalidParametersError("request body too large")
		}
		return apperrors.NewInvalidParametersError("read body: " + err.Error())
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	if result := schema.ValidateBytes(body); !result.Valid {
		return apperrors.NewInvalidParametersError(result.Summary())
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewInvalidParametersError("decode body: " + err.Error())
	}
	return nil
}
