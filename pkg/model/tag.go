package model

// Tag is keyed by its lowercase Name; Label is the display form.
// An empty Parent means the tag is top level.
type Tag struct {
	Name      string  `json:"name"`
	Label     string  `json:"label"`
	Color     string  `json:"color,omitempty"`
	SortType  TagSort `json:"sortType,omitempty"`
	SortOrder int64   `json:"sortOrder,omitempty"`
	Parent    string  `json:"parent"`
	Etag      string  `json:"etag,omitempty"`
	Extra     Extra   `json:"-"`
}

func (t *Tag) UnmarshalJSON(data []byte) error {
	type alias Tag
	var a alias
	extra, err := decodeWithExtra(data, &a)
	if err != nil {
		return err
	}
	*t = Tag(a)
	t.Extra = extra
	return nil
}

func (t Tag) MarshalJSON() ([]byte, error) {
	type alias Tag
	return encodeWithExtra(alias(t), t.Extra)
}

// Tags have no server id.
func (t Tag) EntityID() string   { return "" }
func (t Tag) EntityEtag() string { return t.Etag }
