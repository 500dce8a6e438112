package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ifuryst/lol"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/i18n"
	"github.com/inspectrack/inspectrack/internal/inspection"
	"github.com/inspectrack/inspectrack/internal/notifier"
	"github.com/inspectrack/inspectrack/internal/quality"
	"github.com/inspectrack/inspectrack/internal/tenant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Inspection handles the inspection lifecycle endpoints.
type Inspection struct {
	db         database.Database
	pub        *Publisher
	thresholds quality.Thresholds
	logger     *zap.Logger
}

// NewInspection creates the inspection handler.
func NewInspection(db database.Database, pub *Publisher, thresholds quality.Thresholds, logger *zap.Logger) *Inspection {
	return &Inspection{
		db:         db,
		pub:        pub,
		thresholds: thresholds,
		logger:     logger.Named("apiserver.handler.inspection"),
	}
}

// assignedTo reports whether the user is one of the inspection's
// assigned inspectors.
func assignedTo(userID uint, insp *database.Inspection) bool {
	for i := range insp.Inspectors {
		if insp.Inspectors[i].ID == userID {
			return true
		}
	}
	return false
}

func filterFromQuery(c *gin.Context) database.InspectionFilter {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	return database.InspectionFilter{
		Status:   c.Query("status"),
		Shift:    c.Query("shift"),
		Project:  c.Query("project"),
		AreaLine: c.Query("area_line"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
}

// scopeFromQuery narrows the request context to one company when the
// company_id query parameter is present. The parameter can only shrink
// the caller's scope; asking for a company outside it yields the empty
// scope, which matches nothing.
func scopeFromQuery(c *gin.Context) {
	if raw := c.Query("company_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil && id > 0 {
			scope := tenant.FromContext(c.Request.Context())
			narrowed := tenant.Companies()
			if scope.Allows(uint(id)) {
				narrowed = tenant.Company(uint(id))
			}
			c.Request = c.Request.WithContext(
				tenant.WithScope(c.Request.Context(), narrowed))
		}
	}
}

// List returns a filtered page of inspections. Inspectors only see
// inspections they are assigned to.
func (h *Inspection) List(c *gin.Context) {
	actor, _, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	scopeFromQuery(c)
	filter := filterFromQuery(c)
	if actor.IsRestrictedEditor() {
		filter.InspectorID = actor.UserID
	}

	inspections, total, err := h.db.ListInspections(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list inspections", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"inspections": inspections,
		"total":       total,
	})
}

// Get returns one inspection with parts, items and inspectors.
func (h *Inspection) Get(c *gin.Context) {
	actor, _, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	insp, err := h.db.GetInspectionByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return
	}
	if actor.IsRestrictedEditor() && !assignedTo(actor.UserID, insp) {
		// Unassigned inspections are invisible to inspectors
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"inspection": insp})
}

type inspectionRequest struct {
	CompanyID      uint                    `json:"company_id"`
	Date           string                  `json:"date"`
	Shift          string                  `json:"shift"`
	Project        string                  `json:"project"`
	AreaLine       string                  `json:"area_line"`
	GeneralComment string                  `json:"general_comment"`
	StartTime      string                  `json:"start_time"`
	EndTime        string                  `json:"end_time"`
	InspectorIDs   []uint                  `json:"inspector_ids"`
	Parts          []inspectionPartRequest `json:"parts"`
}

// inspectionPartRequest is a pre-filled part group of a creation
// request, used when a whole sheet is registered at once.
type inspectionPartRequest struct {
	PartNumber  string            `json:"part_number" binding:"required"`
	Description string            `json:"description"`
	Items       []partItemRequest `json:"items"`
}

type partItemRequest struct {
	SerialNumber string `json:"serial_number"`
	LotCode      string `json:"lot_code"`
	GoodQty      int    `json:"good_qty" binding:"gte=0"`
	DefectQty    int    `json:"defect_qty" binding:"gte=0"`
	DefectTagID  *uint  `json:"defect_tag_id"`
	Comment      string `json:"comment"`
}

func validDate(v string) bool {
	_, err := time.Parse("2006-01-02", v)
	return err == nil
}

// Create registers a new pending inspection and assigns its reference
// code.
func (h *Inspection) Create(c *gin.Context) {
	actor, user, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}
	if err := inspection.Decide(inspection.ActionCreate, actor, nil); err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	var req inspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}
	if req.CompanyID == 0 {
		// Callers scoped to a single company may omit it
		if id, single := tenant.FromContext(c.Request.Context()).Single(); single {
			req.CompanyID = id
		} else {
			i18n.RespondWithError(c, i18n.ErrorRequiredField.WithParam("Field", "company_id"))
			return
		}
	}
	if !validDate(req.Date) {
		i18n.RespondWithError(c, i18n.ErrorInvalidFormat.WithParam("Field", "date"))
		return
	}

	insp := &database.Inspection{
		CompanyID:      req.CompanyID,
		Date:           req.Date,
		Shift:          strings.TrimSpace(req.Shift),
		Project:        strings.TrimSpace(req.Project),
		AreaLine:       strings.TrimSpace(req.AreaLine),
		GeneralComment: req.GeneralComment,
		StartTime:      inspection.NormalizeClock(req.StartTime),
		Status:         database.StatusPending,
		CreatedByID:    user.ID,
	}
	for i, p := range req.Parts {
		part := database.InspectionPart{
			PartNumber:  strings.TrimSpace(p.PartNumber),
			Description: strings.TrimSpace(p.Description),
			Order:       i + 1,
		}
		for _, it := range p.Items {
			part.Items = append(part.Items, database.InspectionItem{
				SerialNumber: strings.TrimSpace(it.SerialNumber),
				LotCode:      strings.TrimSpace(it.LotCode),
				GoodQty:      it.GoodQty,
				DefectQty:    it.DefectQty,
				DefectTagID:  it.DefectTagID,
				Comment:      it.Comment,
			})
		}
		insp.Parts = append(insp.Parts, part)
	}

	err := h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		if err := h.db.CreateInspection(ctx, insp); err != nil {
			return err
		}
		if len(req.InspectorIDs) > 0 {
			return h.db.ReplaceInspectors(ctx, insp.ID, lol.UniqSlice(req.InspectorIDs))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrScopeDenied) {
			i18n.RespondWithError(c, i18n.ErrorCompanyScopeDenied)
			return
		}
		h.logger.Error("failed to create inspection", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	created, err := h.db.GetInspectionByID(c.Request.Context(), insp.ID)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.pub.inspectionUpdated(c.Request.Context(), created)
	h.logger.Info("inspection created",
		zap.Uint("inspection_id", created.ID),
		zap.String("reference_code", created.ReferenceCode))
	i18n.RespondCreated(c, i18n.SuccessInspectionCreated, nil, gin.H{"inspection": created})
}

// Update edits an open inspection. Inspectors may only touch the
// general comment.
func (h *Inspection) Update(c *gin.Context) {
	actor, _, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	insp, err := h.db.GetInspectionByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return
	}
	if actor.IsRestrictedEditor() && !assignedTo(actor.UserID, insp) {
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return
	}
	if err := inspection.Decide(inspection.ActionEdit, actor, insp); err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	var req inspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}

	insp.GeneralComment = req.GeneralComment
	if !actor.IsRestrictedEditor() {
		if req.Date != "" {
			if !validDate(req.Date) {
				i18n.RespondWithError(c, i18n.ErrorInvalidFormat.WithParam("Field", "date"))
				return
			}
			insp.Date = req.Date
		}
		if req.Shift != "" {
			insp.Shift = strings.TrimSpace(req.Shift)
		}
		if req.Project != "" {
			insp.Project = strings.TrimSpace(req.Project)
		}
		if req.AreaLine != "" {
			insp.AreaLine = strings.TrimSpace(req.AreaLine)
		}
		if req.StartTime != "" {
			insp.StartTime = inspection.NormalizeClock(req.StartTime)
		}
		if req.EndTime != "" {
			insp.EndTime = inspection.NormalizeClock(req.EndTime)
		}
	}

	// Field edits and inspector reassignment land together or not at all
	err = h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		if err := h.db.UpdateInspection(ctx, insp); err != nil {
			return err
		}
		if !actor.IsRestrictedEditor() && req.InspectorIDs != nil {
			return h.db.ReplaceInspectors(ctx, insp.ID, lol.UniqSlice(req.InspectorIDs))
		}
		return nil
	})
	if err != nil {
		h.logger.Error("failed to update inspection", zap.Uint("inspection_id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	updated, err := h.db.GetInspectionByID(c.Request.Context(), insp.ID)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.pub.inspectionUpdated(c.Request.Context(), updated)
	h.evaluateInspectionAlerts(c.Request.Context(), updated)
	i18n.RespondOK(c, i18n.SuccessInspectionUpdated, nil, gin.H{"inspection": updated})
}

// Start moves a pending inspection to in_progress, stamping the start
// time if the creator left it empty.
func (h *Inspection) Start(c *gin.Context) {
	h.transition(c, inspection.ActionStart, database.StatusInProgress, i18n.SuccessInspectionStarted)
}

// Complete closes an in_progress inspection. Requires at least one
// part and no empty parts, and a supervisory role.
func (h *Inspection) Complete(c *gin.Context) {
	h.transition(c, inspection.ActionComplete, database.StatusCompleted, i18n.SuccessInspectionCompleted)
}

func (h *Inspection) transition(c *gin.Context, action inspection.Action, to string, successMsg string) {
	actor, _, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	insp, err := h.db.GetInspectionByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return
	}
	if err := inspection.Decide(action, actor, insp); err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	from := insp.Status
	inspection.Stamp(insp, to, time.Now())
	if err := h.db.UpdateInspection(c.Request.Context(), insp); err != nil {
		h.logger.Error("failed to persist transition",
			zap.Uint("inspection_id", id),
			zap.String("transition", inspection.TransitionString(from, to)),
			zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.logger.Info("inspection transitioned",
		zap.Uint("inspection_id", id),
		zap.String("transition", inspection.TransitionString(from, to)))

	if to == database.StatusCompleted {
		h.pub.inspectionCompleted(c.Request.Context(), insp)
		// Closing the sheet is the last word on its numbers
		h.evaluateInspectionAlerts(c.Request.Context(), insp)
	} else {
		h.pub.inspectionUpdated(c.Request.Context(), insp)
	}
	i18n.RespondOK(c, successMsg, nil, gin.H{"inspection": insp})
}

// Delete soft-deletes an open inspection. Completed inspections are
// immutable.
func (h *Inspection) Delete(c *gin.Context) {
	actor, _, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	insp, err := h.db.GetInspectionByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return
	}
	if err := inspection.Decide(inspection.ActionDelete, actor, insp); err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	if err := h.db.DeleteInspection(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
			return
		}
		h.logger.Error("failed to delete inspection", zap.Uint("inspection_id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.pub.inspectionUpdated(c.Request.Context(), insp)
	i18n.RespondOK(c, i18n.SuccessInspectionDeleted, nil, nil)
}

type captureItemRequest struct {
	PartNumber   string `json:"part_number" binding:"required"`
	Description  string `json:"description"`
	SerialNumber string `json:"serial_number"`
	LotCode      string `json:"lot_code"`
	GoodQty      int    `json:"good_qty" binding:"gte=0"`
	DefectQty    int    `json:"defect_qty" binding:"gte=0"`
	DefectTagID  *uint  `json:"defect_tag_id"`
	Comment      string `json:"comment"`
}

// AddItem records an inspected unit, creating the part group on first
// use. Only allowed while the inspection is in progress.
func (h *Inspection) AddItem(c *gin.Context) {
	actor, _, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	insp, err := h.db.GetInspectionByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return
	}
	if actor.IsRestrictedEditor() && !assignedTo(actor.UserID, insp) {
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return
	}
	if err := inspection.Decide(inspection.ActionCapture, actor, insp); err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	var req captureItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}

	partNumber := strings.TrimSpace(req.PartNumber)
	var part *database.InspectionPart
	for i := range insp.Parts {
		if insp.Parts[i].PartNumber == partNumber {
			part = &insp.Parts[i]
			break
		}
	}

	item := &database.InspectionItem{
		CompanyID:    insp.CompanyID,
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		LotCode:      strings.TrimSpace(req.LotCode),
		GoodQty:      req.GoodQty,
		DefectQty:    req.DefectQty,
		DefectTagID:  req.DefectTagID,
		Comment:      req.Comment,
	}

	err = h.db.Transaction(c.Request.Context(), func(ctx context.Context) error {
		if part == nil {
			nextOrder := 0
			for i := range insp.Parts {
				if insp.Parts[i].Order > nextOrder {
					nextOrder = insp.Parts[i].Order
				}
			}
			part = &database.InspectionPart{
				CompanyID:    insp.CompanyID,
				InspectionID: insp.ID,
				PartNumber:   partNumber,
				Description:  strings.TrimSpace(req.Description),
				Order:        nextOrder + 1,
			}
			if err := h.db.CreatePart(ctx, part); err != nil {
				return err
			}
		}
		item.PartID = part.ID
		return h.db.CreateItem(ctx, item)
	})
	if err != nil {
		h.logger.Error("failed to record item", zap.Uint("inspection_id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.pub.inspectionUpdated(c.Request.Context(), insp)
	h.evaluatePartAlert(c.Request.Context(), insp, part.ID)
	i18n.RespondCreated(c, i18n.SuccessItemRecorded, nil, gin.H{"item": item})
}

// evaluatePartAlert re-checks a part's running totals after a capture
// and raises a realtime alert when a threshold is crossed.
func (h *Inspection) evaluatePartAlert(ctx context.Context, insp *database.Inspection, partID uint) {
	part, err := h.db.GetPartByID(ctx, partID)
	if err != nil {
		h.logger.Warn("failed to reload part for alert evaluation", zap.Uint("part_id", partID), zap.Error(err))
		return
	}
	h.publishPartAlert(ctx, insp, part)
}

// evaluateInspectionAlerts re-checks every part of the inspection.
// Runs after edits and after completion, so corrections to already
// captured numbers still raise their alerts.
func (h *Inspection) evaluateInspectionAlerts(ctx context.Context, insp *database.Inspection) {
	for i := range insp.Parts {
		h.publishPartAlert(ctx, insp, &insp.Parts[i])
	}
}

// publishPartAlert emits a realtime alert when the part's totals cross
// a threshold. The defect rate verdict wins; PPM only matters when the
// rate stayed quiet.
func (h *Inspection) publishPartAlert(ctx context.Context, insp *database.Inspection, part *database.InspectionPart) {
	good, bad := 0, 0
	for i := range part.Items {
		good += part.Items[i].GoodQty
		bad += part.Items[i].DefectQty
	}
	if good+bad == 0 {
		return
	}
	m := quality.Compute(good, bad)

	severity := h.thresholds.PartSeverity(m)
	if severity == "" {
		return
	}

	rate := quality.Round(float64(bad)/float64(good+bad)*100, 1)
	h.pub.qualityAlert(ctx, insp.CompanyID, notifier.PartAlert{
		InspectionID:       insp.ID,
		PartNumber:         part.PartNumber,
		Severity:           severity,
		Metrics:            m,
		Message:            quality.AlertMessage(severity, quality.AlertTypePart, part.PartNumber, rate),
		RecommendedActions: quality.RecommendedActions(severity, quality.AlertTypePart),
	})
}

type updateItemRequest struct {
	SerialNumber *string `json:"serial_number"`
	LotCode      *string `json:"lot_code"`
	GoodQty      *int    `json:"good_qty"`
	DefectQty    *int    `json:"defect_qty"`
	DefectTagID  *uint   `json:"defect_tag_id"`
	Comment      *string `json:"comment"`
}

// loadItemInspection resolves item -> part -> inspection, enforcing
// scope and inspector visibility along the way.
func (h *Inspection) loadItemInspection(c *gin.Context, itemID uint) (*database.InspectionItem, *database.InspectionPart, *database.Inspection, bool) {
	actor, _, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return nil, nil, nil, false
	}

	item, err := h.db.GetItemByID(c.Request.Context(), itemID)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorInspectionItemNotFound)
		return nil, nil, nil, false
	}
	part, err := h.db.GetPartByID(c.Request.Context(), item.PartID)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorInspectionPartNotFound)
		return nil, nil, nil, false
	}
	insp, err := h.db.GetInspectionByID(c.Request.Context(), part.InspectionID)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return nil, nil, nil, false
	}
	if actor.IsRestrictedEditor() && !assignedTo(actor.UserID, insp) {
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return nil, nil, nil, false
	}
	if err := inspection.Decide(inspection.ActionCapture, actor, insp); err != nil {
		i18n.RespondWithError(c, err)
		return nil, nil, nil, false
	}
	return item, part, insp, true
}

// UpdateItem edits a captured item while the inspection is in progress.
func (h *Inspection) UpdateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, part, insp, ok := h.loadItemInspection(c, id)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}

	if req.SerialNumber != nil {
		item.SerialNumber = strings.TrimSpace(*req.SerialNumber)
	}
	if req.LotCode != nil {
		item.LotCode = strings.TrimSpace(*req.LotCode)
	}
	if req.GoodQty != nil && *req.GoodQty >= 0 {
		item.GoodQty = *req.GoodQty
	}
	if req.DefectQty != nil && *req.DefectQty >= 0 {
		item.DefectQty = *req.DefectQty
	}
	if req.DefectTagID != nil {
		item.DefectTagID = req.DefectTagID
	}
	if req.Comment != nil {
		item.Comment = *req.Comment
	}

	if err := h.db.UpdateItem(c.Request.Context(), item); err != nil {
		h.logger.Error("failed to update item", zap.Uint("item_id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.pub.inspectionUpdated(c.Request.Context(), insp)
	h.evaluatePartAlert(c.Request.Context(), insp, part.ID)
	i18n.RespondOK(c, i18n.SuccessItemRecorded, nil, gin.H{"item": item})
}

// DeleteItem removes a captured item. Deleting the last item of a part
// removes the part group as well.
func (h *Inspection) DeleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	_, _, insp, ok := h.loadItemInspection(c, id)
	if !ok {
		return
	}

	if err := h.db.DeleteItem(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete item", zap.Uint("item_id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.pub.inspectionUpdated(c.Request.Context(), insp)
	i18n.RespondOK(c, i18n.SuccessItemDeleted, nil, nil)
}
