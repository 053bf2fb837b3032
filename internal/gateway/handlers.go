package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	state := "connected"
	if err := s.session.locked.Err(); err != nil {
		state = "disconnected"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"uptime":     time.Since(s.appeared).String(),
		"service":    s.cfg.Name,
		"instrument": state,
	})
}

// call makes sure a usable connection exists, then runs fn.
func (s *Server) call(c *gin.Context, fn func() (any, error)) {
	if err := s.session.ensure(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	out, err := fn()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) version(c *gin.Context) {
	s.call(c, func() (any, error) {
		v, err := s.inst.VersionGet()
		if err != nil {
			return nil, err
		}
		return gin.H{
			"product_line":      v.ProductLine,
			"version":           v.Version,
			"host_app_release":  v.HostAppRelease,
			"rt_engine_release": v.RTEngineRelease,
		}, nil
	})
}

func (s *Server) biasGet(c *gin.Context) {
	s.call(c, func() (any, error) {
		v, err := s.inst.BiasGet()
		if err != nil {
			return nil, err
		}
		return gin.H{"volts": v}, nil
	})
}

type biasRequest struct {
	Volts *float32 `json:"volts" binding:"required"`
}

func (s *Server) biasSet(c *gin.Context) {
	var req biasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %w", protocol.ErrInvalidArgument, err))
		return
	}
	s.call(c, func() (any, error) {
		if err := s.inst.BiasSet(*req.Volts); err != nil {
			return nil, err
		}
		return gin.H{"volts": *req.Volts}, nil
	})
}

func (s *Server) signals(c *gin.Context) {
	s.call(c, func() (any, error) {
		names, err := s.inst.SignalNamesGet()
		if err != nil {
			return nil, err
		}
		return gin.H{"signals": names}, nil
	})
}

// transact forwards one raw command. Codes use vendor spellings or shape
// names; values are plain JSON.
func (s *Server) transact(c *gin.Context) {
	var req transactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %w", protocol.ErrInvalidArgument, err))
		return
	}
	args, argCodes, err := decodeArgs(req.Args)
	if err != nil {
		respondError(c, err)
		return
	}
	resultCodes, err := protocol.ParseCodes(req.Results...)
	if err != nil {
		respondError(c, err)
		return
	}
	s.call(c, func() (any, error) {
		results, err := s.session.locked.Transact(req.Command, args, argCodes, resultCodes)
		if err != nil {
			return nil, err
		}
		return gin.H{"command": req.Command, "results": encodeResults(results, resultCodes)}, nil
	})
}
