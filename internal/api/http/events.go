package http

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	syncx "github.com/mind-engage/fapquiz/internal/sync"
)

type EventLister interface {
	List(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

type eventView struct {
	Offset    int64  `json:"offset"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	Data      string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// GET /events?after=0&limit=100
func ListEventsHandler(events EventLister, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		after, _ := strconv.ParseInt(q.Get("after"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))
		list, err := events.List(r.Context(), after, limit)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		out := make([]eventView, 0, len(list))
		for _, e := range list {
			out = append(out, eventView{e.Offset, e.SiteID, e.Type, e.Key, e.DataJSON, e.CreatedAt})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
