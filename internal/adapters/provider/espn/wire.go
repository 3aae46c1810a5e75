package espn

// Wire shapes of the ESPN site API. Only the fields the engine reads are
// declared.

type scoreboardDoc struct {
	Events []sbEvent `json:"events"`
}

type sbEvent struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	ShortName    string          `json:"shortName"`
	Date         string          `json:"date"`
	Status       status          `json:"status"`
	Competitions []sbCompetition `json:"competitions"`
}

type status struct {
	Period       int    `json:"period"`
	DisplayClock string `json:"displayClock"`
	Type         struct {
		Name      string `json:"name"`
		State     string `json:"state"`
		Completed bool   `json:"completed"`
	} `json:"type"`
}

type sbCompetition struct {
	Competitors []competitor `json:"competitors"`
	Situation   *situation   `json:"situation"`
	Status      *status      `json:"status"`
}

type competitor struct {
	ID       string `json:"id"`
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     struct {
		ID           string `json:"id"`
		DisplayName  string `json:"displayName"`
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
}

type situation struct {
	PossessionText   *string   `json:"possessionText"`
	DownDistanceText *string   `json:"downDistanceText"`
	IsRedZone        *bool     `json:"isRedZone"`
	LastPlay         *lastPlay `json:"lastPlay"`
}

type lastPlay struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Type struct {
		Text string `json:"text"`
	} `json:"type"`
	Team *struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"team"`
	Drive *struct {
		End *struct {
			Text string `json:"text"`
		} `json:"end"`
	} `json:"drive"`
}

type summaryDoc struct {
	Header struct {
		ID           string          `json:"id"`
		Competitions []sbCompetition `json:"competitions"`
	} `json:"header"`
	Situation *situation `json:"situation"`
}
