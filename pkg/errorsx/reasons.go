package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonSTTTranscribe ReasonCode = "stt_transcribe"
	ReasonSTTConnect    ReasonCode = "stt_connect"
	ReasonSTTRateLimit  ReasonCode = "stt_rate_limit"

	ReasonTTSConnect   ReasonCode = "tts_connect"
	ReasonTTSStream    ReasonCode = "tts_stream"
	ReasonTTSRateLimit ReasonCode = "tts_rate_limit"

	ReasonLLMGenerate  ReasonCode = "llm_generate"
	ReasonLLMDecode    ReasonCode = "llm_decode"
	ReasonLLMRateLimit ReasonCode = "llm_rate_limit"

	ReasonConsentInterpret ReasonCode = "consent_interpret"

	ReasonTransportSend  ReasonCode = "transport_send"
	ReasonTransportClose ReasonCode = "transport_closed"

	ReasonReportPost    ReasonCode = "report_post"
	ReasonNotifySend    ReasonCode = "notify_send"
	ReasonResumeExtract ReasonCode = "resume_extract"
)
