package request_models

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

type RegisterIPNRequest struct {
	URL string `json:"url"`
}
