package reddit

// Listing mirrors the subset of the reddit listing payload this system
// reads. raw_json=1 is requested so no HTML entity decoding is needed.
type listing struct {
	Data struct {
		Children []struct {
			Data submission `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type submission struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	Subreddit  string  `json:"subreddit"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
}

type commentResponse struct {
	JSON struct {
		Errors [][]interface{} `json:"errors"`
	} `json:"json"`
}

type accountResponse struct {
	Name string `json:"name"`
}
