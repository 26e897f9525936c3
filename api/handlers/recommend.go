package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/crop-advisor/pkg/models"
)

// Recommender is the recommendation pipeline as the handlers see it.
type Recommender interface {
	Recommend(ctx context.Context, f models.Features) (*models.SoilRecommendation, error)
	Seasonal(ctx context.Context, district, season string) (*models.SeasonalRecommendation, error)
	Demand(ctx context.Context, district string) (*models.DemandForecast, error)
	Districts() []string
	Seasons() []string
	DemandDistricts() []string
}

type RecommendHandler struct {
	svc Recommender
}

func NewRecommendHandler(svc Recommender) *RecommendHandler {
	return &RecommendHandler{svc: svc}
}

// SoilRequest fields are pointers so that a missing value fails binding
// while an explicit zero is accepted.
type SoilRequest struct {
	N           *float64 `json:"N" binding:"required" example:"90"`
	P           *float64 `json:"P" binding:"required" example:"42"`
	K           *float64 `json:"K" binding:"required" example:"43"`
	Temperature *float64 `json:"temperature" binding:"required" example:"20.87"`
	Humidity    *float64 `json:"humidity" binding:"required" example:"82.0"`
	Rainfall    *float64 `json:"rainfall" binding:"required" example:"202.93"`
}

func (r SoilRequest) features() models.Features {
	return models.Features{
		Nitrogen:    *r.N,
		Phosphorus:  *r.P,
		Potassium:   *r.K,
		Temperature: *r.Temperature,
		Humidity:    *r.Humidity,
		Rainfall:    *r.Rainfall,
	}
}

type SeasonalRequest struct {
	District string `json:"district" binding:"required" example:"Erode"`
	Season   string `json:"season" binding:"required" example:"Kharif"`
}

type DemandRequest struct {
	District string `json:"district_name" binding:"required" example:"Durg"`
}

// Recommend godoc
// @Summary Recommend crops for a soil reading
// @Description Returns the three most probable crops from the trained classifier
// @Tags Soil Analysis
// @Accept json
// @Produce json
// @Param request body SoilRequest true "Soil nutrients and climate"
// @Success 200 {object} models.SoilRecommendation
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /recommend [post]
func (h *RecommendHandler) Recommend(c *gin.Context) {
	var req SoilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.svc.Recommend(c.Request.Context(), req.features())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Seasonal godoc
// @Summary Recommend crops for a district and season
// @Description Ranks crops by mean historical production and forecasts the top crop
// @Tags Seasonal Analysis
// @Accept json
// @Produce json
// @Param request body SeasonalRequest true "District and season"
// @Success 200 {object} models.SeasonalRecommendation
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /seasonal_crop [post]
func (h *RecommendHandler) Seasonal(c *gin.Context) {
	var req SeasonalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.svc.Seasonal(c.Request.Context(), req.District, req.Season)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Demand godoc
// @Summary Forecast crop demand for a district
// @Description Forecasts next-period production per crop column and returns the top five
// @Tags Demand Analysis
// @Accept json
// @Produce json
// @Param request body DemandRequest true "District"
// @Success 200 {object} models.DemandForecast
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string "Forecast not computed yet"
// @Failure 500 {object} map[string]string
// @Router /demand [post]
func (h *RecommendHandler) Demand(c *gin.Context) {
	var req DemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.svc.Demand(c.Request.Context(), req.District)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Districts godoc
// @Summary List districts of the seasonal dataset
// @Tags Seasonal Analysis
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /districts [get]
func (h *RecommendHandler) Districts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"districts": h.svc.Districts()})
}

// Seasons godoc
// @Summary List seasons of the seasonal dataset
// @Tags Seasonal Analysis
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /seasons [get]
func (h *RecommendHandler) Seasons(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"seasons": h.svc.Seasons()})
}

// DemandDistricts godoc
// @Summary List districts of the demand dataset
// @Tags Demand Analysis
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /demand/districts [get]
func (h *RecommendHandler) DemandDistricts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"districts": h.svc.DemandDistricts()})
}
