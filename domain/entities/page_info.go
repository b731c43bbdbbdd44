package entities

// PageInfo содержит информацию о текущей странице
type PageInfo struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	TextPreview string `json:"text_preview,omitempty"` // Первые символы текста для диагностики
}
