package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"land-registry-service/apperr"
	"land-registry-service/database"
	"land-registry-service/mapaggr"
	"land-registry-service/models"
	"land-registry-service/service"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"
)

type RegistryHandler struct {
	registry      *service.RegistryService
	records       *database.LandRecordsService
	notifications *database.NotificationsService
}

func NewRegistryHandler(
	registry *service.RegistryService,
	records *database.LandRecordsService,
	notifications *database.NotificationsService,
) *RegistryHandler {
	return &RegistryHandler{
		registry:      registry,
		records:       records,
		notifications: notifications,
	}
}

// HealthCheck returns a simple health status
func (h *RegistryHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "land-registry-service",
	})
}

func (h *RegistryHandler) GetRecords(c *gin.Context) {
	owner, _ := c.GetQuery("owner")

	records, err := h.records.ListRecords(c.Request.Context(), owner)
	if err != nil {
		log.Errorf("Error listing land records: %v", err)
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, &models.RecordsResponse{Records: records})
}

func (h *RegistryHandler) GetRecord(c *gin.Context) {
	id, ok := recordIdQuery(c)
	if !ok {
		return
	}

	record, err := h.records.GetRecord(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, &models.RecordResponse{Record: record})
}

func (h *RegistryHandler) GetHoldings(c *gin.Context) {
	address, has := c.GetQuery("address")
	if !has || address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "address param is required"})
		return
	}

	ids, err := h.records.GetHoldings(c.Request.Context(), address)
	if err != nil {
		log.Errorf("Error getting holdings for %s: %v", address, err)
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, &models.HoldingsResponse{Address: address, RecordIds: ids})
}

// GetTransferHistory returns the status-change audit trail for one record.
func (h *RegistryHandler) GetTransferHistory(c *gin.Context) {
	id, ok := recordIdQuery(c)
	if !ok {
		return
	}

	// 404 for unknown records instead of an empty trail.
	if _, err := h.records.GetRecord(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	entries, err := h.records.TransferHistory(c.Request.Context(), id)
	if err != nil {
		log.Errorf("Error getting transfer history for record %d: %v", id, err)
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"record_id": id, "history": entries})
}

func (h *RegistryHandler) GetMap(c *gin.Context) {
	vp, ok := viewportQuery(c)
	if !ok {
		return
	}
	centerLat, centerLon, ok := centerQuery(c, vp)
	if !ok {
		return
	}

	parcels, err := h.records.ParcelsInViewport(c.Request.Context(), vp)
	if err != nil {
		log.Errorf("Error getting parcels for viewport %v: %v", vp, err)
		respondError(c, err)
		return
	}

	aggr := mapaggr.NewAggregator(vp, centerLat, centerLon)
	for _, p := range parcels {
		aggr.AddPoint(p)
	}

	fc := geojson.NewFeatureCollection()
	for _, f := range aggr.Features() {
		fc.AddFeature(f)
	}
	c.JSON(http.StatusOK, fc)
}

func (h *RegistryHandler) RegisterRecord(c *gin.Context) {
	args := &models.RegisterRecordRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /register_record call: %v", err)
		return
	}

	record, err := h.registry.Register(c.Request.Context(), args)
	if err != nil {
		log.Errorf("Error registering land record: %v", err)
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, &models.RecordResponse{Record: record})
}

func (h *RegistryHandler) VerifyRecord(c *gin.Context) {
	args := &models.RecordIdRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /verify_record call: %v", err)
		return
	}

	record, err := h.registry.Verify(c.Request.Context(), args.RecordId)
	if err != nil {
		log.Errorf("Error verifying land record %d: %v", args.RecordId, err)
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, &models.RecordResponse{Record: record})
}

func (h *RegistryHandler) UpdateStatus(c *gin.Context) {
	args := &models.UpdateStatusRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /update_status call: %v", err)
		return
	}

	record, err := h.registry.UpdateStatus(c.Request.Context(), args.RecordId, args.Status)
	if err != nil {
		log.Errorf("Error updating status of land record %d: %v", args.RecordId, err)
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, &models.RecordResponse{Record: record})
}

func (h *RegistryHandler) RequestTransfer(c *gin.Context) {
	args := &models.RequestTransferRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /request_transfer call: %v", err)
		return
	}

	record, err := h.registry.RequestTransfer(c.Request.Context(), args)
	if err != nil {
		log.Errorf("Error requesting transfer of land record %d: %v", args.RecordId, err)
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, &models.TransferResponse{
		Record:  record,
		Message: "Transfer request submitted successfully. An admin will review your request.",
	})
}

func (h *RegistryHandler) ApproveTransfer(c *gin.Context) {
	args := &models.RecordIdRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /approve_transfer call: %v", err)
		return
	}

	record, txHash, err := h.registry.ApproveTransfer(c.Request.Context(), args.RecordId)
	if err != nil {
		log.Errorf("Error approving transfer of land record %d: %v", args.RecordId, err)
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, &models.TransferResponse{
		Record:          record,
		TransactionHash: txHash,
		Message:         "Transfer completed successfully",
	})
}

func (h *RegistryHandler) RejectTransfer(c *gin.Context) {
	args := &models.RecordIdRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /reject_transfer call: %v", err)
		return
	}

	record, err := h.registry.RejectTransfer(c.Request.Context(), args.RecordId)
	if err != nil {
		log.Errorf("Error rejecting transfer of land record %d: %v", args.RecordId, err)
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, &models.TransferResponse{
		Record:  record,
		Message: "Transfer rejected",
	})
}

func (h *RegistryHandler) GetNotifications(c *gin.Context) {
	notifications, err := h.notifications.List(c.Request.Context())
	if err != nil {
		log.Errorf("Error listing admin notifications: %v", err)
		respondError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, &models.NotificationsResponse{Notifications: notifications})
}

func (h *RegistryHandler) MarkNotificationRead(c *gin.Context) {
	args := &models.NotificationActionRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /mark_notification_read call: %v", err)
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), args.Id); err != nil {
		log.Errorf("Error marking notification %d read: %v", args.Id, err)
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *RegistryHandler) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.notifications.MarkAllRead(c.Request.Context()); err != nil {
		log.Errorf("Error marking all notifications read: %v", err)
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *RegistryHandler) DeleteNotification(c *gin.Context) {
	idStr, has := c.GetQuery("id")
	if !has {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id param is required"})
		return
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("parsing id: %v", err)})
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id); err != nil {
		log.Errorf("Error deleting notification %d: %v", id, err)
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// respondError translates domain error kinds into HTTP statuses. Errors
// without a kind are internal.
func respondError(c *gin.Context, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.InvalidState:
		status = http.StatusUnprocessableEntity
	case apperr.Upstream:
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"success": false, "error": err.Error(), "kind": string(kind)})
}

func recordIdQuery(c *gin.Context) (uint64, bool) {
	idStr, has := c.GetQuery("id")
	if !has {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id param is required"})
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("parsing id: %v", err)})
		return 0, false
	}
	return id, true
}

func viewportQuery(c *gin.Context) (*models.ViewPort, bool) {
	var (
		vp  models.ViewPort
		err error
	)
	params := []struct {
		name string
		dst  *float64
	}{
		{"sw_lat", &vp.LatMin},
		{"sw_lon", &vp.LonMin},
		{"ne_lat", &vp.LatMax},
		{"ne_lon", &vp.LonMax},
	}
	for _, p := range params {
		str, has := c.GetQuery(p.name)
		if !has {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("%s param is required", p.name)})
			return nil, false
		}
		if *p.dst, err = strconv.ParseFloat(str, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("parsing %s: %v", p.name, err)})
			return nil, false
		}
	}
	return &vp, true
}

// centerQuery reads the optional center_lat/center_lon params, defaulting
// to the viewport midpoint.
func centerQuery(c *gin.Context, vp *models.ViewPort) (float64, float64, bool) {
	lat, lon := mapaggr.Center(vp)
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"center_lat", &lat},
		{"center_lon", &lon},
	} {
		str, has := c.GetQuery(p.name)
		if !has {
			continue
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("parsing %s: %v", p.name, err)})
			return 0, 0, false
		}
		*p.dst = v
	}
	return lat, lon, true
}
