package db

import (
	"time"
)

// IngestRun maps clip.ingest_runs.
type IngestRun struct {
	RunID         int64      `gorm:"column:run_id;primaryKey;autoIncrement"`
	IngestRunUUID string     `gorm:"column:ingest_run_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Trigger       string     `gorm:"column:trigger;type:text;not null"`
	SourceID      *string    `gorm:"column:source_id;type:text"`
	StartedAt     time.Time  `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	FinishedAt    *time.Time `gorm:"column:finished_at;type:timestamptz"`
	Status        string     `gorm:"column:status;type:text;not null;default:running"`
	ItemsFetched  int        `gorm:"column:items_fetched;type:integer;not null;default:0"`
	ItemsInserted int        `gorm:"column:items_inserted;type:integer;not null;default:0"`
	ItemsDropped  int        `gorm:"column:items_dropped;type:integer;not null;default:0"`
	ErrorMessage  *string    `gorm:"column:error_message;type:text"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (IngestRun) TableName() string { return "clip.ingest_runs" }

// Article maps clip.articles. Raw fields arrive from the fetch/ingest path;
// canonical fields are filled at insert time so dedup can compare like with
// like without re-deriving keys.
type Article struct {
	ArticleID        int64      `gorm:"column:article_id;primaryKey;autoIncrement"`
	ArticleUUID      string     `gorm:"column:article_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	RunID            *int64     `gorm:"column:run_id;type:bigint"`
	SourceID         string     `gorm:"column:source_id;type:text;not null"`
	URL              string     `gorm:"column:url;type:text;not null"`
	Title            string     `gorm:"column:title;type:text;not null"`
	Body             string     `gorm:"column:body;type:text;not null;default:''"`
	CanonicalURL     string     `gorm:"column:canonical_url;type:text;not null;default:''"`
	CanonicalURLHash []byte     `gorm:"column:canonical_url_hash;type:bytea"`
	NormalizedTitle  string     `gorm:"column:normalized_title;type:text;not null;default:''"`
	TitleHash        []byte     `gorm:"column:title_hash;type:bytea"`
	ContentHash      []byte     `gorm:"column:content_hash;type:bytea"`
	Language         string     `gorm:"column:language;type:text;not null;default:und"`
	PublishedAt      *time.Time `gorm:"column:published_at;type:timestamptz"`
	FetchedAt        time.Time  `gorm:"column:fetched_at;type:timestamptz;not null;default:now()"`
	BodyChars        int        `gorm:"column:body_chars;type:integer;not null;default:0"`
	DeletedAt        *time.Time `gorm:"column:deleted_at;type:timestamptz"`
	CreatedAt        time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Article) TableName() string { return "clip.articles" }

// Clip maps clip.clips: one deduplicated story with a representative article.
type Clip struct {
	ClipID                  int64      `gorm:"column:clip_id;primaryKey;autoIncrement"`
	ClipUUID                string     `gorm:"column:clip_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	RunDate                 time.Time  `gorm:"column:run_date;type:date;not null"`
	CanonicalTitle          string     `gorm:"column:canonical_title;type:text;not null"`
	CanonicalURL            *string    `gorm:"column:canonical_url;type:text"`
	RepresentativeArticleID int64      `gorm:"column:representative_article_id;type:bigint;not null"`
	MemberCount             int        `gorm:"column:member_count;type:integer;not null;default:1"`
	SourceCount             int        `gorm:"column:source_count;type:integer;not null;default:1"`
	FirstSeenAt             time.Time  `gorm:"column:first_seen_at;type:timestamptz;not null"`
	LastSeenAt              time.Time  `gorm:"column:last_seen_at;type:timestamptz;not null"`
	Status                  string     `gorm:"column:status;type:text;not null;default:active"`
	DeletedAt               *time.Time `gorm:"column:deleted_at;type:timestamptz"`
	CreatedAt               time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt               time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Clip) TableName() string { return "clip.clips" }

// ClipArticle maps clip.clip_articles (duplicate-group membership).
type ClipArticle struct {
	ClipID     int64     `gorm:"column:clip_id;type:bigint;primaryKey"`
	ArticleID  int64     `gorm:"column:article_id;type:bigint;primaryKey;unique"`
	MatchType  string    `gorm:"column:match_type;type:text;not null"`
	MatchScore *float64  `gorm:"column:match_score;type:double precision"`
	MatchedAt  time.Time `gorm:"column:matched_at;type:timestamptz;not null;default:now()"`
}

func (ClipArticle) TableName() string { return "clip.clip_articles" }

// DedupEvent maps clip.dedup_events: one audit row per grouped article.
type DedupEvent struct {
	DedupEventID int64     `gorm:"column:dedup_event_id;primaryKey;autoIncrement"`
	ArticleID    int64     `gorm:"column:article_id;type:bigint;not null;unique"`
	Decision     string    `gorm:"column:decision;type:text;not null"`
	ClipID       *int64    `gorm:"column:clip_id;type:bigint"`
	MatchType    *string   `gorm:"column:match_type;type:text"`
	MatchScore   *float64  `gorm:"column:match_score;type:double precision"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (DedupEvent) TableName() string { return "clip.dedup_events" }

// Client maps clip.clients: one newsletter customer with its own rule table.
type Client struct {
	ClientID  int64     `gorm:"column:client_id;primaryKey;autoIncrement"`
	Slug      string    `gorm:"column:slug;type:text;not null;unique"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Enabled   bool      `gorm:"column:enabled;type:boolean;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Client) TableName() string { return "clip.clients" }

// KeywordRule maps clip.keyword_rules. Keywords are pipe-delimited in storage,
// matching the spreadsheet export they are imported from.
type KeywordRule struct {
	RuleID          int64     `gorm:"column:rule_id;primaryKey;autoIncrement"`
	Client          string    `gorm:"column:client;type:text;not null"`
	Section         string    `gorm:"column:section;type:text;not null"`
	Topic           string    `gorm:"column:topic;type:text;not null"`
	Keywords        string    `gorm:"column:keywords;type:text;not null"`
	RequiredMention string    `gorm:"column:required_mention;type:text;not null;default:''"`
	Media           string    `gorm:"column:media;type:text;not null;default:''"`
	Priority        *int      `gorm:"column:priority;type:integer"`
	OfferingGated   bool      `gorm:"column:offering_gated;type:boolean;not null;default:false"`
	Enabled         bool      `gorm:"column:enabled;type:boolean;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (KeywordRule) TableName() string { return "clip.keyword_rules" }

// SectionAssignment maps clip.section_assignments: one fired rule for a clip.
type SectionAssignment struct {
	AssignmentID int64     `gorm:"column:assignment_id;primaryKey;autoIncrement"`
	ClipID       int64     `gorm:"column:clip_id;type:bigint;not null"`
	Client       string    `gorm:"column:client;type:text;not null"`
	Section      string    `gorm:"column:section;type:text;not null"`
	Topic        string    `gorm:"column:topic;type:text;not null"`
	Matches      int       `gorm:"column:matches;type:integer;not null;default:0"`
	Priority     int       `gorm:"column:priority;type:integer;not null;default:0"`
	RunDate      time.Time `gorm:"column:run_date;type:date;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (SectionAssignment) TableName() string { return "clip.section_assignments" }

// Indicator maps clip.indicators: one economic-indicator snapshot per day.
type Indicator struct {
	IndicatorID int64     `gorm:"column:indicator_id;primaryKey;autoIncrement"`
	Code        string    `gorm:"column:code;type:text;not null"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Value       string    `gorm:"column:value;type:text;not null"`
	CapturedOn  time.Time `gorm:"column:captured_on;type:date;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Indicator) TableName() string { return "clip.indicators" }

// DigestRun maps clip.digest_runs.
type DigestRun struct {
	DigestRunID  int64      `gorm:"column:digest_run_id;primaryKey;autoIncrement"`
	Client       string     `gorm:"column:client;type:text;not null"`
	RunDate      time.Time  `gorm:"column:run_date;type:date;not null"`
	StartedAt    time.Time  `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	FinishedAt   *time.Time `gorm:"column:finished_at;type:timestamptz"`
	Status       string     `gorm:"column:status;type:text;not null;default:running"`
	SectionCount int        `gorm:"column:section_count;type:integer;not null;default:0"`
	EntryCount   int        `gorm:"column:entry_count;type:integer;not null;default:0"`
	ErrorMessage *string    `gorm:"column:error_message;type:text"`
}

func (DigestRun) TableName() string { return "clip.digest_runs" }

// DigestEntry maps clip.digest_entries.
type DigestEntry struct {
	DigestEntryID int64     `gorm:"column:digest_entry_id;primaryKey;autoIncrement"`
	DigestRunID   int64     `gorm:"column:digest_run_id;type:bigint;not null"`
	ClipID        int64     `gorm:"column:clip_id;type:bigint;not null"`
	Section       string    `gorm:"column:section;type:text;not null"`
	Topic         string    `gorm:"column:topic;type:text;not null"`
	Rank          int       `gorm:"column:rank;type:integer;not null"`
	Summary       string    `gorm:"column:summary;type:text;not null;default:''"`
	Citation      string    `gorm:"column:citation;type:text;not null;default:''"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (DigestEntry) TableName() string { return "clip.digest_entries" }

// User maps clip.users (API auth).
type User struct {
	UserID             int64      `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username           string     `gorm:"column:username;type:text;not null;unique"`
	PasswordHash       string     `gorm:"column:password_hash;type:text;not null"`
	MustChangePassword bool       `gorm:"column:must_change_password;type:boolean;not null;default:false"`
	CreatedAt          time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	LastLoginAt        *time.Time `gorm:"column:last_login_at;type:timestamptz"`
}

func (User) TableName() string { return "clip.users" }

// Session maps clip.sessions.
type Session struct {
	SessionID  string    `gorm:"column:session_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID     int64     `gorm:"column:user_id;type:bigint;not null"`
	ExpiresAt  time.Time `gorm:"column:expires_at;type:timestamptz;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;type:timestamptz;not null;default:now()"`
}

func (Session) TableName() string { return "clip.sessions" }

// Setting maps clip.settings: host-tunable pipeline policy knobs.
type Setting struct {
	Key       string    `gorm:"column:key;type:text;primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Setting) TableName() string { return "clip.settings" }

func autoMigrateModels() []any {
	return []any{
		&IngestRun{},
		&Article{},
		&Clip{},
		&ClipArticle{},
		&DedupEvent{},
		&Client{},
		&KeywordRule{},
		&SectionAssignment{},
		&Indicator{},
		&DigestRun{},
		&DigestEntry{},
		&User{},
		&Session{},
		&Setting{},
	}
}
