package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/motorinps-dev/emby/internal/common"
	"github.com/motorinps-dev/emby/internal/services"
)

func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	var req []provisionEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req) == 0 {
		s.writeError(w, http.StatusBadRequest, "empty batch")
		return
	}

	entries := make([]services.Entry, 0, len(req))
	for _, e := range req {
		entries = append(entries, services.Entry{Username: e.Username, Password: e.Password})
	}

	report, err := s.lifecycle.Provision(r.Context(), entries)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	issues, more := toIssues(report.Issues)
	s.writeJSON(w, http.StatusOK, provisionResponse{
		Created:    report.Created,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		Issues:     issues,
		MoreIssues: more,
	})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	list, err := s.lifecycle.ListAccounts(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats, err := s.lifecycle.AccountStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, accountsResponse{
		Accounts: toAccountItems(list),
		Stats: statsBlock{
			Total:    stats.Total,
			Active:   stats.Active,
			LoggedIn: stats.LoggedIn,
			Deleted:  stats.Deleted,
		},
	})
}

func (s *Server) handleLoginSweep(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	report, err := s.lifecycle.DetectLogins(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, loginSweepResponse{
		Checked: report.Checked,
		Updated: report.Updated,
		Failed:  report.Failed,
	})
}

func (s *Server) handleExpirySweep(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	report, err := s.lifecycle.ExpireAccounts(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, expirySweepResponse{
		Candidates: report.Candidates,
		Deleted:    report.Deleted,
		Failed:     report.Failed,
	})
}

func (s *Server) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	var req chatIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == 0 {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.admins.AddAdmin(r.Context(), req.ChatID, req.Username); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.writeError(w, http.StatusConflict, "already registered")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeRecipients(w, r)
}

func (s *Server) handleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	chatID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	if err := s.admins.RemoveAdmin(r.Context(), chatID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.writeError(w, http.StatusNotFound, "not registered")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeRecipients(w, r)
}

func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	var req chatIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == 0 {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.admins.AddGroup(r.Context(), req.ChatID); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.writeError(w, http.StatusConflict, "already registered")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeRecipients(w, r)
}

func (s *Server) handleRemoveGroup(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	chatID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	if err := s.admins.RemoveGroup(r.Context(), chatID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.writeError(w, http.StatusNotFound, "not registered")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeRecipients(w, r)
}

func (s *Server) writeRecipients(w http.ResponseWriter, r *http.Request) {
	admins, err := s.admins.ListAdmins(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	groups, err := s.admins.ListGroups(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, recipientsResponse{Admins: admins, Groups: groups})
}

// handleHealth is unauthenticated so probes can reach it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", DB: "ok", Remote: "ok"}
	status := http.StatusOK

	if err := s.db.PingContext(r.Context()); err != nil {
		resp.Status, resp.DB = "degraded", err.Error()
		status = http.StatusServiceUnavailable
	}
	if s.connCheck != nil {
		if err := s.connCheck(r.Context()); err != nil {
			resp.Status, resp.Remote = "degraded", err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, status, resp)
}
