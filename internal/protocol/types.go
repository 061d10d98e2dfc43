// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol defines the typed payload shapes returned by the
// multi-tool assistant backend.
package protocol

// Wire structs in this file match the backend's JSON key-for-key. The backend
// aggregates several upstream APIs and keeps each API's casing: snake_case
// for the movie and maps tools, camelCase for search and places, PascalCase
// for the AccuWeather tools. Tags must not be "cleaned up".

// =============================================================================
// CHAT ANSWER
// =============================================================================

// ChatAnswer is the bare response shape used when no tool ran.
type ChatAnswer struct {
	FinalAnswer string `json:"final_answer"`
}

func (c *ChatAnswer) Tool() string       { return "" }
func (c *ChatAnswer) SpokenText() string { return c.FinalAnswer }
func (c *ChatAnswer) Announceable() bool { return true }
func (c *ChatAnswer) sealed()            {}

// =============================================================================
// IMAGE SEARCH
// =============================================================================

// ImageSearch is the "Image Search" tool response. Both final_answer and
// response carry the same image list shape on the wire.
type ImageSearch struct {
	FinalAnswer ImageList `json:"final_answer"`
	Response    ImageList `json:"response"`
}

// ImageList wraps an ordered list of image results.
type ImageList struct {
	Images []ImageInfo `json:"images"`
}

// ImageInfo is a single image search hit.
type ImageInfo struct {
	ImageURL  string `json:"imageUrl"`
	SourceURL string `json:"sourceUrl"`
	Title     string `json:"title"`
}

func (i *ImageSearch) Tool() string       { return ToolImageSearch }
func (i *ImageSearch) SpokenText() string { return "" }
func (i *ImageSearch) Announceable() bool { return false }
func (i *ImageSearch) sealed()            {}

// =============================================================================
// MOVIE SHOWTIMES
// =============================================================================

// MovieShowtimes is the "IMDb Showtimes" tool response: showtimes grouped by
// theatre, in backend order.
type MovieShowtimes struct {
	FinalAnswer string             `json:"final_answer"`
	Response    []TheatreShowtimes `json:"response"`
}

// TheatreShowtimes lists one movie's showtimes at one theatre.
type TheatreShowtimes struct {
	IMDbPageURL string   `json:"imdb_page_url"`
	Movie       string   `json:"movie"`
	PosterURL   string   `json:"poster_url"`
	Showtimes   []string `json:"showtimes"`
	Theatre     string   `json:"theatre"`
}

func (m *MovieShowtimes) Tool() string       { return ToolMovieShowtimes }
func (m *MovieShowtimes) SpokenText() string { return m.FinalAnswer }
func (m *MovieShowtimes) Announceable() bool { return true }
func (m *MovieShowtimes) sealed()            {}

// =============================================================================
// MOVIE INFO (TMDB)
// =============================================================================

// MovieInfo is the "TMDB-API" tool response. The backend repeats the record
// list under both final_answer and response.
type MovieInfo struct {
	FinalAnswer []MovieRecord `json:"final_answer"`
	Response    []MovieRecord `json:"response"`
}

// MovieRecord is one movie with its full TMDB detail block.
type MovieRecord struct {
	Details         MovieDetails `json:"details"`
	Overview        string       `json:"overview"`
	PosterURL       string       `json:"poster_url"`
	Recommendations []string     `json:"recommendations"`
	ReleaseDate     string       `json:"release_date"`
	Title           string       `json:"title"`
}

// MovieDetails is the TMDB movie detail object, passed through by the
// backend unmodified.
type MovieDetails struct {
	Adult               bool                `json:"adult"`
	BackdropPath        *string             `json:"backdrop_path"`
	Budget              int64               `json:"budget"`
	Genres              []Genre             `json:"genres"`
	Homepage            *string             `json:"homepage"`
	ID                  int                 `json:"id"`
	IMDbID              string              `json:"imdb_id"`
	OriginalLanguage    string              `json:"original_language"`
	OriginalTitle       string              `json:"original_title"`
	Overview            string              `json:"overview"`
	Popularity          float64             `json:"popularity"`
	PosterPath          *string             `json:"poster_path"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	ReleaseDate         string              `json:"release_date"`
	Revenue             int64               `json:"revenue"`
	Runtime             int                 `json:"runtime"`
	SpokenLanguages     []SpokenLanguage    `json:"spoken_languages"`
	Status              string              `json:"status"`
	Tagline             *string             `json:"tagline"`
	Title               string              `json:"title"`
	Video               bool                `json:"video"`
	VoteAverage         float64             `json:"vote_average"`
	VoteCount           int                 `json:"vote_count"`
}

// Genre is a TMDB genre tag.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProductionCompany is a TMDB production company record.
type ProductionCompany struct {
	ID            int     `json:"id"`
	LogoPath      *string `json:"logo_path"`
	Name          string  `json:"name"`
	OriginCountry string  `json:"origin_country"`
}

// ProductionCountry is a TMDB production country record.
type ProductionCountry struct {
	ISO3166_1 string `json:"iso_3166_1"`
	Name      string `json:"name"`
}

// SpokenLanguage is a TMDB spoken language record.
type SpokenLanguage struct {
	EnglishName string `json:"english_name"`
	ISO639_1    string `json:"iso_639_1"`
	Name        string `json:"name"`
}

func (m *MovieInfo) Tool() string { return ToolMovieInfo }

// SpokenText is empty: the record list has no single sentence to read.
func (m *MovieInfo) SpokenText() string { return "" }
func (m *MovieInfo) Announceable() bool { return false }
func (m *MovieInfo) sealed()            {}

// =============================================================================
// MAPS DIRECTIONS
// =============================================================================

// Directions is the "Maps Directions" tool response. The route info is
// duplicated under final_answer and response on the wire.
type Directions struct {
	FinalAnswer RouteInfo `json:"final_answer"`
	Response    RouteInfo `json:"response"`
}

// RouteInfo carries a generated route with deep links for both map apps.
type RouteInfo struct {
	AppleMapsURL  string `json:"apple_maps_url"`
	Destination   string `json:"destination"`
	GoogleMapsURL string `json:"google_maps_url"`
	Origin        string `json:"origin"`
}

func (d *Directions) Tool() string       { return ToolDirections }
func (d *Directions) SpokenText() string { return "" }
func (d *Directions) Announceable() bool { return false }
func (d *Directions) sealed()            {}

// =============================================================================
// WEB SEARCH
// =============================================================================

// WebSearch is the "Google Search" tool response wrapping Serper results.
type WebSearch struct {
	FinalAnswer string        `json:"final_answer"`
	Response    SearchDetails `json:"response"`
}

// SearchDetails is the Serper result block. Optional sections are nil when
// the upstream search omitted them.
type SearchDetails struct {
	SearchParameters SearchParameters  `json:"searchParameters"`
	AnswerBox        *AnswerBox        `json:"answerBox,omitempty"`
	Organic          []OrganicResult   `json:"organic"`
	PeopleAlsoAsk    []RelatedQuestion `json:"peopleAlsoAsk,omitempty"`
	RelatedSearches  []RelatedSearch   `json:"relatedSearches,omitempty"`
	TopStories       []TopStory        `json:"topStories,omitempty"`
}

// SearchParameters echoes the query the backend ran.
type SearchParameters struct {
	Q      string `json:"q"`
	GL     string `json:"gl"`
	HL     string `json:"hl"`
	Num    int    `json:"num"`
	Type   string `json:"type"`
	Engine string `json:"engine"`
}

// AnswerBox is the featured answer snippet, when present.
type AnswerBox struct {
	Snippet *string `json:"snippet,omitempty"`
	Title   *string `json:"title,omitempty"`
	Link    *string `json:"link,omitempty"`
}

// OrganicResult is one ranked search hit.
type OrganicResult struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Snippet   string     `json:"snippet"`
	Position  int        `json:"position"`
	Date      *string    `json:"date,omitempty"`
	Sitelinks []SiteLink `json:"sitelinks,omitempty"`
}

// SiteLink is a sub-link shown under an organic result.
type SiteLink struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// RelatedQuestion is a "people also ask" entry.
type RelatedQuestion struct {
	Question *string `json:"question,omitempty"`
	Snippet  *string `json:"snippet,omitempty"`
	Title    *string `json:"title,omitempty"`
	Link     *string `json:"link,omitempty"`
}

// RelatedSearch is a suggested follow-up query.
type RelatedSearch struct {
	Query string `json:"query"`
}

// TopStory is a news carousel entry.
type TopStory struct {
	Date     *string `json:"date,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
	Link     *string `json:"link,omitempty"`
	Source   *string `json:"source,omitempty"`
	Title    *string `json:"title,omitempty"`
}

func (w *WebSearch) Tool() string       { return ToolWebSearch }
func (w *WebSearch) SpokenText() string { return w.FinalAnswer }
func (w *WebSearch) Announceable() bool { return true }
func (w *WebSearch) sealed()            {}

// =============================================================================
// ENCYCLOPEDIA (WIKIPEDIA)
// =============================================================================

// Encyclopedia is the "Wikipedia" tool response: a flat summary with an
// optional lead image.
type Encyclopedia struct {
	FinalAnswer string  `json:"final_answer"`
	ImageURL    *string `json:"image_url,omitempty"`
	PageURL     string  `json:"page_url"`
	Response    string  `json:"response"`
}

func (e *Encyclopedia) Tool() string       { return ToolEncyclopedia }
func (e *Encyclopedia) SpokenText() string { return e.FinalAnswer }
func (e *Encyclopedia) Announceable() bool { return true }
func (e *Encyclopedia) sealed()            {}

// =============================================================================
// ACCUWEATHER HOURLY FORECAST
// =============================================================================

// HourlyForecast is the "AccuWeather Hourly Forecast" tool response. The
// entries keep AccuWeather's PascalCase keys.
type HourlyForecast struct {
	FinalAnswer string        `json:"final_answer"`
	Response    []HourlyEntry `json:"response"`
}

// HourlyEntry is one hour of forecast data.
type HourlyEntry struct {
	DateTime                 string           `json:"DateTime"`
	EpochDateTime            int64            `json:"EpochDateTime"`
	HasPrecipitation         bool             `json:"HasPrecipitation"`
	IconPhrase               string           `json:"IconPhrase"`
	IsDaylight               bool             `json:"IsDaylight"`
	Link                     string           `json:"Link"`
	MobileLink               string           `json:"MobileLink"`
	PrecipitationProbability int              `json:"PrecipitationProbability"`
	Temperature              TemperatureValue `json:"Temperature"`
	WeatherIcon              int              `json:"WeatherIcon"`
}

// TemperatureValue is AccuWeather's unit-tagged temperature.
type TemperatureValue struct {
	Unit     string  `json:"Unit"`
	UnitType int     `json:"UnitType"`
	Value    float64 `json:"Value"`
}

func (h *HourlyForecast) Tool() string       { return ToolHourlyForecast }
func (h *HourlyForecast) SpokenText() string { return h.FinalAnswer }
func (h *HourlyForecast) Announceable() bool { return true }
func (h *HourlyForecast) sealed()            {}

// =============================================================================
// ACCUWEATHER DAILY FORECAST
// =============================================================================

// DailyForecast is the "AccuWeather Daily Forecast" tool response.
type DailyForecast struct {
	FinalAnswer string       `json:"final_answer"`
	Response    DailySummary `json:"response"`
}

// DailySummary wraps the forecast list and its headline.
type DailySummary struct {
	DailyForecasts []DailyEntry `json:"DailyForecasts"`
	Headline       Headline     `json:"Headline"`
}

// DailyEntry is one day of forecast data.
type DailyEntry struct {
	Date        string           `json:"Date"`
	Day         DayPart          `json:"Day"`
	EpochDate   int64            `json:"EpochDate"`
	Link        string           `json:"Link"`
	MobileLink  string           `json:"MobileLink"`
	Night       DayPart          `json:"Night"`
	Sources     []string         `json:"Sources"`
	Temperature TemperatureRange `json:"Temperature"`
}

// DayPart describes conditions for the day or night half of a forecast.
// The precipitation detail keys are only present when HasPrecipitation.
type DayPart struct {
	HasPrecipitation       bool    `json:"HasPrecipitation"`
	Icon                   int     `json:"Icon"`
	IconPhrase             string  `json:"IconPhrase"`
	PrecipitationIntensity *string `json:"PrecipitationIntensity,omitempty"`
	PrecipitationType      *string `json:"PrecipitationType,omitempty"`
}

// TemperatureRange is the day's min/max pair.
type TemperatureRange struct {
	Maximum TemperatureValue `json:"Maximum"`
	Minimum TemperatureValue `json:"Minimum"`
}

// Headline is AccuWeather's multi-day summary banner.
type Headline struct {
	Category           string `json:"Category"`
	EffectiveDate      string `json:"EffectiveDate"`
	EffectiveEpochDate int64  `json:"EffectiveEpochDate"`
	EndDate            string `json:"EndDate"`
	EndEpochDate       int64  `json:"EndEpochDate"`
	Link               string `json:"Link"`
	MobileLink         string `json:"MobileLink"`
	Severity           int    `json:"Severity"`
	Text               string `json:"Text"`
}

func (d *DailyForecast) Tool() string       { return ToolDailyForecast }
func (d *DailyForecast) SpokenText() string { return d.FinalAnswer }
func (d *DailyForecast) Announceable() bool { return true }
func (d *DailyForecast) sealed()            {}

// =============================================================================
// PLACES
// =============================================================================

// Places is the "Google Serper Places" tool response.
type Places struct {
	FinalAnswer string    `json:"final_answer"`
	Response    PlaceList `json:"response"`
}

// PlaceList wraps the ranked place results.
type PlaceList struct {
	Places []Place `json:"places"`
}

// Place is one local business or point of interest.
type Place struct {
	Address      string  `json:"address"`
	Category     string  `json:"category"`
	CID          string  `json:"cid"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Position     int     `json:"position"`
	Rating       float64 `json:"rating"`
	RatingCount  int     `json:"ratingCount"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Title        string  `json:"title"`
}

func (p *Places) Tool() string       { return ToolPlaces }
func (p *Places) SpokenText() string { return p.FinalAnswer }
func (p *Places) Announceable() bool { return true }
func (p *Places) sealed()            {}
