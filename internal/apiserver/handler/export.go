package handler

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/i18n"
	"go.uber.org/zap"
)

// exportPageSize bounds how many inspections one export query fetches
// at a time.
const exportPageSize = 500

// csvHeader is the Spanish column header of inspection exports.
var csvHeader = []string{"Referencia", "Fecha", "Turno", "Parte", "S/N", "Lote", "Buenas", "Malas", "Total"}

// writeInspectionsCSV streams the inspections as CSV, one row per
// captured item. Inspections without items still yield no rows, only
// the header guarantees a non-empty file.
func writeInspectionsCSV(c *gin.Context, logger *zap.Logger, fetch func(page int) ([]*database.Inspection, error)) {
	filename := fmt.Sprintf("inspecciones-%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(csvHeader); err != nil {
		logger.Error("failed to write csv header", zap.Error(err))
		return
	}

	for page := 1; ; page++ {
		inspections, err := fetch(page)
		if err != nil {
			logger.Error("failed to fetch export page", zap.Int("page", page), zap.Error(err))
			return
		}
		if len(inspections) == 0 {
			break
		}
		for _, insp := range inspections {
			for pi := range insp.Parts {
				part := &insp.Parts[pi]
				for ii := range part.Items {
					item := &part.Items[ii]
					record := []string{
						insp.ReferenceCode,
						insp.Date,
						insp.Shift,
						part.PartNumber,
						item.SerialNumber,
						item.LotCode,
						strconv.Itoa(item.GoodQty),
						strconv.Itoa(item.DefectQty),
						strconv.Itoa(item.Total()),
					}
					if err := w.Write(record); err != nil {
						logger.Error("failed to write csv row", zap.Error(err))
						return
					}
				}
			}
		}
		if len(inspections) < exportPageSize {
			break
		}
	}
	w.Flush()
}

// Export streams the caller's filtered inspections as CSV.
func (h *Inspection) Export(c *gin.Context) {
	actor, _, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	scopeFromQuery(c)
	filter := filterFromQuery(c)
	filter.PageSize = exportPageSize
	if actor.IsRestrictedEditor() {
		filter.InspectorID = actor.UserID
	}

	h.logger.Info("exporting inspections", zap.Uint("user_id", actor.UserID))
	writeInspectionsCSV(c, h.logger, func(page int) ([]*database.Inspection, error) {
		filter.Page = page
		inspections, _, err := h.db.ListInspections(c.Request.Context(), filter)
		return inspections, err
	})
}
