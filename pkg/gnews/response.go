package gnews

import "encoding/json"

// Response - тело ответа GNews как есть. Статьи не типизируются,
// числа остаются json.Number.
type Response map[string]any

func (r Response) TotalArticles() int {
	n, _ := toInt(r["totalArticles"])
	return n
}

// Articles возвращает статьи, пропуская элементы, которые не являются объектами.
func (r Response) Articles() []map[string]any {
	raw, ok := r["articles"].([]any)
	if !ok {
		return nil
	}

	articles := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if a, ok := item.(map[string]any); ok {
			articles = append(articles, a)
		}
	}
	return articles
}

func (r Response) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
