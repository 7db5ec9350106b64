package model

// Project is a task or note list.
type Project struct {
	ID        string      `json:"id,omitempty"`
	Name      string      `json:"name"`
	Color     string      `json:"color,omitempty"`
	Kind      ProjectKind `json:"kind,omitempty"`
	GroupID   string      `json:"groupId"`
	Closed    bool        `json:"closed"`
	SortOrder int64       `json:"sortOrder,omitempty"`
	SortType  string      `json:"sortType,omitempty"`
	ViewMode  string      `json:"viewMode,omitempty"`
	Etag      string      `json:"etag,omitempty"`
	Extra     Extra       `json:"-"`
}

func (p *Project) UnmarshalJSON(data []byte) error {
	type alias Project
	var a alias
	extra, err := decodeWithExtra(data, &a)
	if err != nil {
		return err
	}
	*p = Project(a)
	p.Extra = extra
	return nil
}

func (p Project) MarshalJSON() ([]byte, error) {
	type alias Project
	return encodeWithExtra(alias(p), p.Extra)
}

func (p Project) EntityID() string   { return p.ID }
func (p Project) EntityEtag() string { return p.Etag }

// ProjectFolder groups projects in the sidebar. Folder names need not be unique.
type ProjectFolder struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	ListType  string `json:"listType,omitempty"`
	SortOrder int64  `json:"sortOrder,omitempty"`
	Etag      string `json:"etag,omitempty"`
	Extra     Extra  `json:"-"`
}

func (f *ProjectFolder) UnmarshalJSON(data []byte) error {
	type alias ProjectFolder
	var a alias
	extra, err := decodeWithExtra(data, &a)
	if err != nil {
		return err
	}
	*f = ProjectFolder(a)
	f.Extra = extra
	return nil
}

func (f ProjectFolder) MarshalJSON() ([]byte, error) {
	type alias ProjectFolder
	return encodeWithExtra(alias(f), f.Extra)
}

func (f ProjectFolder) EntityID() string   { return f.ID }
func (f ProjectFolder) EntityEtag() string { return f.Etag }
