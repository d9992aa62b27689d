package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"raceconnect/metrics"
	"raceconnect/models"
)

const duplicateRegistration = "You have already registered for this marathon!"

// GET /myApplyList/:email?search=
func (h *handlers) getApplyList(c *gin.Context) {
	regs, err := h.Registrations.ListByEmail(c.Request.Context(), c.Param("email"), c.Query("search"))
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("list registrations")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch marathons", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, regs)
}

// POST /registrations
func (h *handlers) createRegistration(c *gin.Context) {
	var reg models.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		badRequest(c)
		return
	}
	reg.ID = primitive.NilObjectID

	res, err := h.Registrations.Create(c.Request.Context(), &reg)
	switch {
	case errors.Is(err, models.ErrDuplicateRegistration):
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusBadRequest, duplicateRegistration)
	case err != nil:
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		storeFailure(c, err, "Could not register for marathon. Try again later.")
	default:
		metrics.RegistrationsTotal.WithLabelValues("created").Inc()
		c.JSON(http.StatusOK, res)
	}
}

// PUT /myApplyList/:id
func (h *handlers) updateRegistration(c *gin.Context) {
	var fields bson.M
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c)
		return
	}

	res, err := h.Registrations.Upsert(c.Request.Context(), c.Param("id"), fields, h.UpsertOnUpdate)
	switch {
	case errors.Is(err, models.ErrInvalidID):
		invalidID(c)
		return
	case errors.Is(err, models.ErrEmptyUpdate), errors.Is(err, models.ErrInvalidField):
		badRequest(c)
		return
	case errors.Is(err, models.ErrDuplicateRegistration):
		c.JSON(http.StatusBadRequest, duplicateRegistration)
		return
	case err != nil:
		storeFailure(c, err, "Could not update registration. Try again later.")
		return
	}

	respondOutcome(c, res.Outcome(), outcomeMessages{
		notFound: "Marathon Applied not found",
		noChange: "No changes were made to the marathon applied",
		updated:  "Marathon Applied updated successfully!",
		created:  "Marathon Applied created successfully!",
	})
}

// DELETE /myApplyList/:id
func (h *handlers) deleteRegistration(c *gin.Context) {
	res, err := h.Registrations.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, models.ErrInvalidID):
		invalidID(c)
	case err != nil:
		storeFailure(c, err, "Could not delete registration. Try again later.")
	default:
		c.JSON(http.StatusOK, res)
	}
}
