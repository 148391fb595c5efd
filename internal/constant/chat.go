package constant

const (
	ChatTypePrivate = "private"
	ChatTypeGroup   = "group"
)

const (
	ParticipantRoleAdmin  = "admin"
	ParticipantRoleMember = "member"
)

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

const (
	AttachmentTypeImage = "image"
	AttachmentTypeFile  = "file"
	AttachmentTypeAudio = "audio"
	AttachmentTypeVideo = "video"
)

const (
	MetricPathRealtime = "realtime"
	MetricPathHTTP     = "http"
)
