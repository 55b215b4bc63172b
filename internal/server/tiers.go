package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListTiers(c *gin.Context) {
	catalog := s.tierSvc.Snapshot()
	c.JSON(http.StatusOK, gin.H{"data": catalog.Tiers()})
}

// ReloadTiers re-reads the tiers table and swaps the live snapshot. The
// previous snapshot keeps serving until the new one validates.
func (s *Server) ReloadTiers(c *gin.Context) {
	catalog, err := s.tierSvc.Reload(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": catalog.Tiers()})
}

func parseInt32(raw string) (int32, error) {
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}
