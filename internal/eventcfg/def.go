// Package eventcfg はイベント定義（YAML）と、その設定値（dotenv）を管理する。
//
//	name: report_Bugzilla
//	screen_name: Bugzilla
//	description: Report to Bugzilla bug tracker
//	options:
//	  - name: Bugzilla_Login
//	    type: text
//	    label: User name
//	  - name: Bugzilla_Password
//	    type: password
//
// 値がある設定は実行時に子プロセスの環境変数として渡される。
package eventcfg

// OptionType は設定値の型。
type OptionType string

const (
	OptionText     OptionType = "text"
	OptionBool     OptionType = "bool"
	OptionPassword OptionType = "password"
	OptionNumber   OptionType = "number"
	OptionHint     OptionType = "hint" // 表示のみ。値を持たない
)

// Option はイベントの設定項目1つ。
type Option struct {
	Name        string     `yaml:"name"`
	Type        OptionType `yaml:"type"`
	Label       string     `yaml:"label"`
	Description string     `yaml:"description"`
	Default     string     `yaml:"default"`
	AllowEmpty  bool       `yaml:"allow_empty"`

	Value string `yaml:"-"` // 既定値 → システムの .env → ユーザーの .env の順に上書き
}

// EventDef は YAML から読み込むイベント定義。
type EventDef struct {
	Name            string   `yaml:"name"`
	ScreenName      string   `yaml:"screen_name"`
	Description     string   `yaml:"description"`
	LongDescription string   `yaml:"long_description"`
	SkipReview      bool     `yaml:"skip_review"`
	Sending         bool     `yaml:"sending"` // データを外部へ送るイベント
	Options         []Option `yaml:"options"`
}

// Title は画面表示用の名前を返す。
func (d *EventDef) Title() string {
	if d.ScreenName != "" {
		return d.ScreenName
	}
	return d.Name
}

// Option は名前で設定項目を返す。
func (d *EventDef) Option(name string) (*Option, bool) {
	for i := range d.Options {
		if d.Options[i].Name == name {
			return &d.Options[i], true
		}
	}
	return nil, false
}
