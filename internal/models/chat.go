package models

type ChatResult struct {
	Response            string `json:"response"`
	AudioResponseBase64 string `json:"audio_response_base64"`
}
