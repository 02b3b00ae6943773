package server

import (
	"net/http"

	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
)

type staffView struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Role        string  `json:"role"`
	LastLoginAt *string `json:"lastLoginAt"`
	Disabled    bool    `json:"disabled"`
}

type clientView struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email"`
}

type directoryHandlers struct {
	staff   repository.StaffRepository
	clients repository.ClientRepository
}

func (h *directoryHandlers) HandleStaff(_ http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	rows, err := h.staff.List(r.Context())
	if err != nil {
		return nil, err
	}
	out := make([]staffView, 0, len(rows))
	for _, s := range rows {
		out = append(out, staffView{
			ID:          s.ID,
			Username:    s.Username,
			DisplayName: s.DisplayName,
			Role:        s.Role,
			LastLoginAt: formatOptionalTime(s.LastLoginAt),
			Disabled:    s.DisabledAt != nil,
		})
	}
	return envelope.Fields{"staff": out}, nil
}

func (h *directoryHandlers) HandleClients(_ http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	rows, err := h.clients.List(r.Context())
	if err != nil {
		return nil, err
	}
	out := make([]clientView, 0, len(rows))
	for _, c := range rows {
		out = append(out, clientView{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email})
	}
	return envelope.Fields{"clients": out}, nil
}
