package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	notFound := s.app.APIHandler.NotFoundHandler

	// API routes - Analysis
	mux.HandleFunc("/api/analyze", s.app.AnalyzeHandler.AnalyzeHandler)

	// API routes - Visitor sessions (chat box + image panel)
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		RouteByMethod(w, r, MethodRouter{
			"GET":  s.app.SessionHandler.ListSessionsHandler,
			"POST": s.app.SessionHandler.CreateSessionHandler,
		})
	})
	mux.Handle("/api/sessions/", IDRoutes{
		Prefix:   "/api/sessions/",
		NotFound: notFound,
		Routes: []IDRoute{
			{Methods: map[string]IDHandler{
				"GET":    s.app.SessionHandler.GetSessionHandler,
				"DELETE": s.app.SessionHandler.DeleteSessionHandler,
			}},
			{Suffix: []string{"chat"}, Methods: map[string]IDHandler{
				"POST":   s.app.ChatHandler.SendHandler, // Server-Sent Events
				"DELETE": s.app.ChatHandler.AbandonHandler,
			}},
			{Suffix: []string{"image"}, Methods: map[string]IDHandler{
				"GET":    s.app.ImageHandler.GetImageHandler,
				"POST":   s.app.ImageHandler.GenerateHandler,
				"DELETE": s.app.ImageHandler.AbandonHandler,
			}},
			{Suffix: []string{"image", "download"}, Methods: map[string]IDHandler{
				"GET": s.app.ImageHandler.DownloadHandler,
			}},
		},
	})

	// WebSocket route - chat
	mux.Handle("/ws/sessions/", IDRoutes{
		Prefix:   "/ws/sessions/",
		NotFound: notFound,
		Routes: []IDRoute{
			{Suffix: []string{"chat"}, Methods: map[string]IDHandler{
				"GET": s.app.ChatWSHandler.HandleChatWebSocket,
			}},
		},
	})

	// API routes - History
	mux.HandleFunc("/api/history", s.app.HistoryHandler.ListHistoryHandler)
	mux.Handle("/api/history/", IDRoutes{
		Prefix:   "/api/history/",
		NotFound: notFound,
		Routes: []IDRoute{
			{Methods: map[string]IDHandler{
				"GET":    s.app.HistoryHandler.GetHistoryHandler,
				"DELETE": s.app.HistoryHandler.DeleteHistoryHandler,
			}},
			{Suffix: []string{"export"}, Methods: map[string]IDHandler{
				"GET": s.app.HistoryHandler.ExportHistoryHandler, // ?format=md|html
			}},
		},
	})

	// API routes - API key selection
	mux.HandleFunc("/api/key", func(w http.ResponseWriter, r *http.Request) {
		RouteByMethod(w, r, MethodRouter{
			"GET":    s.app.KeyHandler.GetKeyStatusHandler,
			"POST":   s.app.KeyHandler.SelectKeyHandler,
			"DELETE": s.app.KeyHandler.ClearKeyHandler,
		})
	})

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler/jobs", s.app.SchedulerHandler.ListJobsHandler)
	mux.Handle("/api/scheduler/jobs/", IDRoutes{
		Prefix:   "/api/scheduler/jobs/",
		NotFound: notFound,
		Routes: []IDRoute{
			{Suffix: []string{"trigger"}, Methods: map[string]IDHandler{
				"POST": s.app.SchedulerHandler.TriggerJobHandler,
			}},
		},
	})

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/", notFound)

	return mux
}
