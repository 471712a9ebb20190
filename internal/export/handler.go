package export

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/usersession"
	"github.com/keepfit/keepfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// export everything when no range is given
const (
	rangeStart = "1970-01-01"
	rangeEnd   = "9999-12-31"
)

type Handler struct {
	exporter *Exporter
	// when set, a server side copy of each export is kept there
	copiesDir string
}

func NewHandler(exporter *Exporter, copiesDir string) *Handler {
	return &Handler{
		exporter:  exporter,
		copiesDir: copiesDir,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/export/csv", handler.HandleExportCsv).Methods("GET", "OPTIONS").Name("export-csv")
}

// HandleExportCsv streams the user's training data as a CSV download,
// optionally narrowed by ?dateFrom and ?dateTo.
func (handler *Handler) HandleExportCsv(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.export.csv")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	dateFrom := r.URL.Query().Get("dateFrom")
	if dateFrom == "" {
		dateFrom = rangeStart
	} else if _, err := training.ParseDate(dateFrom); err != nil {
		http.Error(w, "invalid dateFrom", http.StatusBadRequest)
		return
	}
	dateTo := r.URL.Query().Get("dateTo")
	if dateTo == "" {
		dateTo = rangeEnd
	} else if _, err := training.ParseDate(dateTo); err != nil {
		http.Error(w, "invalid dateTo", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := handler.exporter.WriteCSV(ctx, &buf, userID, dateFrom, dateTo); err != nil {
		log.Errorf("failed to export csv for [%s]: %s", userID, err)
		http.Error(w, "export csv error", http.StatusInternalServerError)
		return
	}

	if handler.copiesDir != "" {
		copyPath := filepath.Join(
			handler.copiesDir,
			fmt.Sprintf("export-%s-%d.csv", userID, time.Now().Unix()),
		)
		if err := os.WriteFile(copyPath, buf.Bytes(), 0o644); err != nil {
			log.Warnf("failed to store export copy [%s]: %s", copyPath, err)
		}
	}

	w.Header().Set("Content-Disposition", `attachment; filename="training-export.csv"`)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.CSV, buf.Bytes())
}
