package models

// Features is the soil and climate reading used by the classifier.
// Field order matches the order the scaler and classifier were trained on.
type Features struct {
	Nitrogen    float64 `json:"N"`
	Phosphorus  float64 `json:"P"`
	Potassium   float64 `json:"K"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
}

func (f Features) Vector() []float64 {
	return []float64{f.Nitrogen, f.Phosphorus, f.Potassium, f.Temperature, f.Humidity, f.Rainfall}
}

type CropProbability struct {
	Crop        string  `json:"crop" example:"rice"`
	Probability float64 `json:"probability" example:"0.87"`
}

type SoilRecommendation struct {
	Recommendations []CropProbability `json:"recommendations"`
}

// ForecastStatus tells the caller where predicted_production came from.
type ForecastStatus string

const (
	// ForecastModel means the value came from the sequence model.
	ForecastModel ForecastStatus = "forecast"
	// ForecastHistorical means there was too little history to forecast.
	ForecastHistorical ForecastStatus = "historical_average"
	// ForecastFallback means a forecast was attempted or expected but failed.
	ForecastFallback ForecastStatus = "fallback"
)

type CropAverage struct {
	Rank              int      `json:"rank" example:"1"`
	Crop              string   `json:"crop" example:"Rice"`
	AverageProduction *float64 `json:"average_production" example:"15230.5"`
}

type SeasonalRecommendation struct {
	District            string         `json:"district" example:"ERODE"`
	Season              string         `json:"season" example:"Kharif"`
	RecommendedCrop     string         `json:"recommended_crop" example:"Rice"`
	PredictedProduction *float64       `json:"predicted_production" example:"16120.2"`
	ForecastStatus      ForecastStatus `json:"forecast_status" example:"forecast"`
	Note                string         `json:"note"`
	TopCrops            []CropAverage  `json:"top_crops"`
}

type DemandPrediction struct {
	Rank            int     `json:"rank" example:"1"`
	Crop            string  `json:"crop" example:"RICE PRODUCTION (1000 tons)"`
	PredictedDemand float64 `json:"predicted_demand" example:"412.7"`
}

type DemandForecast struct {
	District string             `json:"district" example:"Erode"`
	TopCrops []DemandPrediction `json:"top_5_crops"`
}
