package model

// Settings is the subset of the account preferences the client relies on.
type Settings struct {
	ID       string `json:"id"`
	TimeZone string `json:"timeZone"`
	Extra    Extra  `json:"-"`
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	type alias Settings
	var a alias
	extra, err := decodeWithExtra(data, &a)
	if err != nil {
		return err
	}
	*s = Settings(a)
	s.Extra = extra
	return nil
}

func (s Settings) MarshalJSON() ([]byte, error) {
	type alias Settings
	return encodeWithExtra(alias(s), s.Extra)
}
