package gui

// VersionData 版本数据
type VersionData struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Site    string `json:"site"`
}
