package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"production-tracking-backend/internal/model"
	"production-tracking-backend/internal/store"
)

// GetRun handles GET /api/runs/{run_id}: one run with every child record.
func (h *Handler) GetRun(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}
	run, err := h.store.GetRun(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Production run not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve production run"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// createOrderRequest is the body of POST /api/orders.
type createOrderRequest struct {
	OrderNumber   string `json:"orderNumber" binding:"required"`
	OrderDate     string `json:"orderDate" binding:"required"`
	ProductID     int64  `json:"productId" binding:"required"`
	PackageSizeID int64  `json:"packageSizeId" binding:"required"`
	QuantityPacks int64  `json:"quantityPacks" binding:"required"`
}

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	orderDate, err := time.ParseInLocation("2006-01-02", req.OrderDate, time.UTC)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'orderDate'. Use YYYY-MM-DD."})
		return
	}

	order := &model.ManufacturingOrder{
		OrderNumber:   req.OrderNumber,
		OrderDate:     orderDate,
		ProductID:     req.ProductID,
		PackageSizeID: req.PackageSizeID,
		QuantityPacks: req.QuantityPacks,
		Status:        model.OrderPending,
	}
	if err := h.store.CreateOrder(c.Request.Context(), order); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}
	c.JSON(http.StatusCreated, order)
}

// createRunRequest is the body of POST /api/runs. BatchNumber is optional
// and derived from the other fields when absent.
type createRunRequest struct {
	OrderID          *int64          `json:"orderId"`
	BatchNumber      string          `json:"batchNumber"`
	Date             string          `json:"date" binding:"required"`
	ProductionLineID int64           `json:"productionLineId" binding:"required"`
	ProductID        int64           `json:"productId" binding:"required"`
	PackageSizeID    int64           `json:"packageSizeId" binding:"required"`
	ShiftID          int64           `json:"shiftId" binding:"required"`
	TeamLeader       string          `json:"teamLeader" binding:"required"`
	ProductionStart  time.Time       `json:"productionStart" binding:"required"`
	FinalSyrupVolume decimal.Decimal `json:"finalSyrupVolume"`
	MixingRatio      decimal.Decimal `json:"mixingRatio"`
	FillerOutput     decimal.Decimal `json:"fillerOutput"`
	GoodProductsPack int64           `json:"goodProductsPack"`
}

// CreateRun handles POST /api/runs.
func (h *Handler) CreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'date'. Use YYYY-MM-DD."})
		return
	}

	run := &model.ProductionRun{
		OrderID:          req.OrderID,
		BatchNumber:      req.BatchNumber,
		Date:             date,
		ProductionLineID: req.ProductionLineID,
		ProductID:        req.ProductID,
		PackageSizeID:    req.PackageSizeID,
		ShiftID:          req.ShiftID,
		TeamLeader:       req.TeamLeader,
		ProductionStart:  req.ProductionStart,
		FinalSyrupVolume: req.FinalSyrupVolume,
		MixingRatio:      req.MixingRatio,
		FillerOutput:     req.FillerOutput,
		GoodProductsPack: req.GoodProductsPack,
	}

	if run.BatchNumber == "" {
		batch, err := h.deriveBatchNumber(c, run)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to derive batch number: " + err.Error()})
			return
		}
		run.BatchNumber = batch
	}

	if err := h.store.CreateRun(c.Request.Context(), run); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create production run"})
		return
	}
	c.JSON(http.StatusCreated, run)
}

func (h *Handler) deriveBatchNumber(c *gin.Context, run *model.ProductionRun) (string, error) {
	db := h.store.DB().WithContext(c.Request.Context())

	var product model.Product
	if err := db.First(&product, run.ProductID).Error; err != nil {
		return "", err
	}
	var pkg model.PackageSize
	if err := db.First(&pkg, run.PackageSizeID).Error; err != nil {
		return "", err
	}
	var shift model.Shift
	if err := db.First(&shift, run.ShiftID).Error; err != nil {
		return "", err
	}
	var line model.ProductionLine
	if err := db.First(&line, run.ProductionLineID).Error; err != nil {
		return "", err
	}
	return model.GenerateBatchNumber(product, pkg, shift, run.Date, line), nil
}

// stopEventRequest is the body of POST /api/runs/{run_id}/stop-events.
type stopEventRequest struct {
	MachineID       int64  `json:"machineId" binding:"required"`
	CodeID          int64  `json:"codeId" binding:"required"`
	Reason          string `json:"reason"`
	DurationMinutes int64  `json:"durationMinutes" binding:"required,gt=0"`
	IsPlanned       bool   `json:"isPlanned"`
}

// CreateStopEvent handles POST /api/runs/{run_id}/stop-events. The store
// keeps the run's unplanned-downtime total in sync; for completed runs the
// report is recalculated right after, so availability reflects the new
// downtime immediately.
func (h *Handler) CreateStopEvent(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}
	var req stopEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	run, err := h.store.GetRun(c.Request.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Production run not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve production run"})
		return
	}

	ev := &model.StopEvent{
		ProductionRunID: runID,
		MachineID:       req.MachineID,
		CodeID:          req.CodeID,
		Reason:          req.Reason,
		DurationMinutes: req.DurationMinutes,
		IsPlanned:       req.IsPlanned,
	}
	if err := h.store.CreateStopEvent(c.Request.Context(), ev); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create stop event"})
		return
	}

	if run.IsCompleted {
		if _, err := h.builder.Recalculate(c.Request.Context(), runID); err != nil {
			log.Printf("api: recalculation after stop event for run %d failed: %v", runID, err)
		}
	}
	c.JSON(http.StatusCreated, ev)
}

// packagingRequest is the body of PUT /api/runs/{run_id}/packaging. Absent
// fields stay null, meaning "not applicable for this line type".
type packagingRequest struct {
	QtyPreformUsed   *int64 `json:"qtyPreformUsed"`
	QtyCapUsed       *int64 `json:"qtyCapUsed"`
	QtyBottleUsed    *int64 `json:"qtyBottleUsed"`
	QtyCanUsed       *int64 `json:"qtyCanUsed"`
	QtyCartonUsed    *int64 `json:"qtyCartonUsed"`
	QtyProductReject *int64 `json:"qtyProductReject"`
	QtyPreformReject *int64 `json:"qtyPreformReject"`
	QtyBottleReject  *int64 `json:"qtyBottleReject"`
	QtyCapReject     *int64 `json:"qtyCapReject"`

	LabelRejectG decimal.NullDecimal `json:"labelRejectG"`
	ShrinkWrapKG decimal.NullDecimal `json:"shrinkWrapKg"`
	StretchWrapG decimal.NullDecimal `json:"stretchWrapG"`
}

// PutPackaging handles PUT /api/runs/{run_id}/packaging and recalculates
// the run's report afterwards.
func (h *Handler) PutPackaging(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}
	var req packagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	p := &model.PackagingMaterial{
		ProductionRunID:  runID,
		QtyPreformUsed:   req.QtyPreformUsed,
		QtyCapUsed:       req.QtyCapUsed,
		QtyBottleUsed:    req.QtyBottleUsed,
		QtyCanUsed:       req.QtyCanUsed,
		QtyCartonUsed:    req.QtyCartonUsed,
		QtyProductReject: req.QtyProductReject,
		QtyPreformReject: req.QtyPreformReject,
		QtyBottleReject:  req.QtyBottleReject,
		QtyCapReject:     req.QtyCapReject,
		LabelRejectG:     req.LabelRejectG,
		ShrinkWrapKG:     req.ShrinkWrapKG,
		StretchWrapG:     req.StretchWrapG,
	}
	if err := h.store.UpsertPackaging(c.Request.Context(), p); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to save packaging material"})
		return
	}

	report, err := h.builder.Recalculate(c.Request.Context(), runID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Packaging saved but recalculation failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packaging": p, "report": report})
}

// utilityRequest is the body of PUT /api/runs/{run_id}/utility.
type utilityRequest struct {
	KgCO2               decimal.NullDecimal `json:"kgCo2"`
	BoilerFuelL         decimal.NullDecimal `json:"boilerFuelL"`
	GeneratorFuelL      decimal.NullDecimal `json:"generatorFuelL"`
	PowerConsumptionKWH decimal.NullDecimal `json:"powerConsumptionKwh"`
}

// PutUtility handles PUT /api/runs/{run_id}/utility and recalculates the
// run's report afterwards.
func (h *Handler) PutUtility(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}
	var req utilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	u := &model.Utility{
		ProductionRunID:     runID,
		KgCO2:               req.KgCO2,
		BoilerFuelL:         req.BoilerFuelL,
		GeneratorFuelL:      req.GeneratorFuelL,
		PowerConsumptionKWH: req.PowerConsumptionKWH,
	}
	if err := h.store.UpsertUtility(c.Request.Context(), u); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to save utility data"})
		return
	}

	report, err := h.builder.Recalculate(c.Request.Context(), runID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Utility saved but recalculation failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"utility": u, "report": report})
}

// finalizeRequest is the body of POST /api/runs/{run_id}/finalize.
type finalizeRequest struct {
	ProductionEnd *time.Time `json:"productionEnd"`
}

// FinalizeRun handles POST /api/runs/{run_id}/finalize: marks the run
// completed, stamps the end time and triggers the report calculation. The
// underlying error is shown to the operator when the calculation fails.
func (h *Handler) FinalizeRun(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}
	// The body is optional; the end time defaults to now.
	var req finalizeRequest
	_ = c.ShouldBindJSON(&req)
	end := time.Now().UTC()
	if req.ProductionEnd != nil {
		end = *req.ProductionEnd
	}

	err := h.store.FinalizeRun(c.Request.Context(), runID, end)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Production run not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize production run"})
		return
	}

	report, err := h.builder.Recalculate(c.Request.Context(), runID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Run finalized but report calculation failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
