package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"raceconnect/models"
)

const sectionSize = 6

// GET /marathons
func (h *handlers) getMarathons(c *gin.Context) {
	marathons, err := h.Marathons.List(c.Request.Context(), 0)
	if err != nil {
		storeFailure(c, err, "Could not fetch marathons. Try again later.")
		return
	}
	c.JSON(http.StatusOK, marathons)
}

// GET /marathonSection
func (h *handlers) getMarathonSection(c *gin.Context) {
	marathons, err := h.Marathons.List(c.Request.Context(), sectionSize)
	if err != nil {
		storeFailure(c, err, "Could not fetch marathons. Try again later.")
		return
	}
	c.JSON(http.StatusOK, marathons)
}

// GET /upcomingMarathons
func (h *handlers) getUpcomingMarathons(c *gin.Context) {
	marathons, err := h.Marathons.ListUpcoming(c.Request.Context(), h.Now())
	if err != nil {
		storeFailure(c, err, "Could not fetch upcoming marathons. Try again later.")
		return
	}
	c.JSON(http.StatusOK, marathons)
}

// GET /marathon/:id
func (h *handlers) getMarathon(c *gin.Context) {
	m, err := h.Marathons.GetByID(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, models.ErrInvalidID):
		invalidID(c)
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Marathon not found"})
	case err != nil:
		storeFailure(c, err, "Could not fetch marathon. Try again later.")
	default:
		c.JSON(http.StatusOK, m)
	}
}

// GET /marathons/:email?sortOrder=asc|desc
func (h *handlers) getOwnerMarathons(c *gin.Context) {
	order := models.ParseSortOrder(c.Query("sortOrder"))
	marathons, err := h.Marathons.ListByOwner(c.Request.Context(), c.Param("email"), order)
	if err != nil {
		storeFailure(c, err, "Could not fetch marathons. Try again later.")
		return
	}
	c.JSON(http.StatusOK, marathons)
}

// POST /addMarathon
func (h *handlers) createMarathon(c *gin.Context) {
	var m models.Marathon
	if err := c.ShouldBindJSON(&m); err != nil {
		badRequest(c)
		return
	}
	m.ID = primitive.NilObjectID
	if m.CreatedAt == "" {
		m.CreatedAt = h.Now().UTC().Format(time.RFC3339)
	}

	res, err := h.Marathons.Create(c.Request.Context(), &m)
	if err != nil {
		storeFailure(c, err, "Could not create marathon. Try again later.")
		return
	}
	h.purgeListings(c)
	c.JSON(http.StatusOK, res)
}

// PUT /updateMarathon/:id
func (h *handlers) updateMarathon(c *gin.Context) {
	var fields bson.M
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c)
		return
	}

	res, err := h.Marathons.Upsert(c.Request.Context(), c.Param("id"), fields, h.UpsertOnUpdate)
	switch {
	case errors.Is(err, models.ErrInvalidID):
		invalidID(c)
		return
	case errors.Is(err, models.ErrEmptyUpdate), errors.Is(err, models.ErrInvalidField):
		badRequest(c)
		return
	case err != nil:
		storeFailure(c, err, "Could not update marathon. Try again later.")
		return
	}

	if res.Outcome() != models.OutcomeNotFound {
		h.purgeListings(c)
	}
	respondOutcome(c, res.Outcome(), outcomeMessages{
		notFound: "Marathon not found",
		noChange: "No changes were made to the marathon",
		updated:  "Marathon updated successfully!",
		created:  "Marathon created successfully!",
	})
}

// PATCH /marathon/:id/increment
func (h *handlers) incrementRegistrations(c *gin.Context) {
	res, err := h.Marathons.IncrementRegistrations(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, models.ErrInvalidID):
		invalidID(c)
	case err != nil:
		storeFailure(c, err, "Could not update marathon. Try again later.")
	case res.MatchedCount == 0:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Marathon not found"})
	default:
		h.purgeListings(c)
		c.JSON(http.StatusOK, res)
	}
}

// DELETE /marathon/:id
func (h *handlers) deleteMarathon(c *gin.Context) {
	res, err := h.Marathons.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, models.ErrInvalidID):
		invalidID(c)
	case err != nil:
		storeFailure(c, err, "Could not delete marathon. Try again later.")
	default:
		if res.DeletedCount > 0 {
			h.purgeListings(c)
		}
		c.JSON(http.StatusOK, res)
	}
}

type outcomeMessages struct {
	notFound, noChange, updated, created string
}

func respondOutcome(c *gin.Context, outcome models.UpdateOutcome, msg outcomeMessages) {
	switch outcome {
	case models.OutcomeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": msg.notFound})
	case models.OutcomeNoChange:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": msg.noChange})
	case models.OutcomeCreated:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": msg.created})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": msg.updated})
	}
}
