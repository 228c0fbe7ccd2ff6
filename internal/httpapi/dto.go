package httpapi

import (
	"time"

	"github.com/motorinps-dev/emby/internal/models"
	"github.com/motorinps-dev/emby/internal/services"
)

type provisionEntry struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type entryIssue struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

type provisionResponse struct {
	Created int          `json:"created"`
	Skipped int          `json:"skipped"`
	Failed  int          `json:"failed"`
	Issues  []entryIssue `json:"issues,omitempty"`
	// MoreIssues counts issues beyond the first maxIssueDetails, which are
	// omitted to keep the report readable.
	MoreIssues int `json:"more_issues,omitempty"`
}

type accountItem struct {
	Username     string     `json:"username"`
	RemoteID     string     `json:"remote_id"`
	CreatedAt    time.Time  `json:"created_at"`
	FirstLoginAt *time.Time `json:"first_login_at,omitempty"`
	IsDeleted    bool       `json:"is_deleted"`
}

type statsBlock struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	LoggedIn int `json:"logged_in"`
	Deleted  int `json:"deleted"`
}

type accountsResponse struct {
	Accounts []accountItem `json:"accounts"`
	Stats    statsBlock    `json:"stats"`
}

type loginSweepResponse struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

type expirySweepResponse struct {
	Candidates int `json:"candidates"`
	Deleted    int `json:"deleted"`
	Failed     int `json:"failed"`
}

type chatIDRequest struct {
	ChatID   int64  `json:"chat_id"`
	Username string `json:"username,omitempty"`
}

type recipientsResponse struct {
	Admins []int64 `json:"admins"`
	Groups []int64 `json:"groups"`
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Remote string `json:"remote"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toAccountItems(list []models.Account) []accountItem {
	items := make([]accountItem, 0, len(list))
	for _, a := range list {
		items = append(items, accountItem{
			Username:     a.Username,
			RemoteID:     a.RemoteID,
			CreatedAt:    a.CreatedAt,
			FirstLoginAt: a.FirstLoginAt,
			IsDeleted:    a.IsDeleted,
		})
	}
	return items
}

// maxIssueDetails bounds the per-entry details included in a provision
// response.
const maxIssueDetails = 10

func toIssues(issues []services.EntryIssue) (out []entryIssue, more int) {
	for _, i := range issues {
		if len(out) == maxIssueDetails {
			return out, len(issues) - maxIssueDetails
		}
		out = append(out, entryIssue{Username: i.Username, Reason: i.Detail})
	}
	return out, 0
}
