package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"raceconnect/metrics"
	"raceconnect/middlewares"
	"raceconnect/models"
	"raceconnect/utils"
)

// Deps is everything the handlers need. Redis and Invalidator may be nil,
// which turns the response cache off.
type Deps struct {
	Marathons      models.MarathonRepository
	Registrations  models.RegistrationRepository
	Tokens         *utils.TokenService
	Cookies        utils.CookieOptions
	Redis          *redis.Client
	Invalidator    *utils.CacheInvalidator
	CacheTTL       time.Duration
	UpsertOnUpdate bool
	Now            func() time.Time
}

type handlers struct{ Deps }

func RegisterRoutes(server *gin.Engine, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handlers{d}

	server.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "RaceConnect server is running....")
	})
	server.GET("/metrics", gin.WrapH(metrics.Handler()))

	server.POST("/jwt", h.issueToken)
	server.POST("/logout", h.logout)
	server.GET("/logout", h.logout)

	cached := server.Group("/", middlewares.ResponseCache(d.Redis, d.CacheTTL))
	cached.GET("/marathonSection", h.getMarathonSection)
	cached.GET("/upcomingMarathons", h.getUpcomingMarathons)

	server.POST("/addMarathon", h.createMarathon)
	server.POST("/registrations", h.createRegistration)

	auth := server.Group("/", middlewares.Authenticate(d.Tokens))
	auth.GET("/marathons", h.getMarathons)
	auth.GET("/marathon/:id", h.getMarathon)
	auth.GET("/marathons/:email", middlewares.RequireOwner("email"), h.getOwnerMarathons)
	auth.PUT("/updateMarathon/:id", h.updateMarathon)
	auth.PATCH("/marathon/:id/increment", h.incrementRegistrations)
	auth.DELETE("/marathon/:id", h.deleteMarathon)

	auth.GET("/myApplyList/:email", middlewares.RequireOwner("email"), h.getApplyList)
	auth.PUT("/myApplyList/:id", h.updateRegistration)
	auth.DELETE("/myApplyList/:id", h.deleteRegistration)
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
}

func invalidID(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id."})
}

// storeFailure logs the underlying error and answers with a generic 500.
func storeFailure(c *gin.Context, err error, message string) {
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("store operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

// purgeListings drops cached listings after a marathon write. A failure
// only delays freshness until the TTL, so it is logged and not surfaced.
func (h *handlers) purgeListings(c *gin.Context) {
	if err := h.Invalidator.PurgeMarathonLists(c.Request.Context()); err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("cache purge failed")
	}
}
