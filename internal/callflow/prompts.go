package callflow

// Fixed spoken prompts. The survey script itself (greeting, questions, ending
// guidance) lives in the database; these are the lines the flow owns.
const (
	PromptNotInService = "現在この番号は使われておりません。"
	PromptError        = "エラーが発生しました。"

	PromptMessageInvite   = "担当者に伝えたいことがあればお話しください。終わったらシャープを押してください。"
	PromptMessageAccepted = "録音を受け付けました。"
	PromptMessageConfirm  = "他にお話しすることはありますか？ ある場合は、1を。終わる場合は、2、またはそのままお待ちください。"

	PromptClosingFallback = "お問い合わせありがとうございました。"
	PromptGoodbye         = "失礼いたします。"
	PromptNoQuestions     = "終了します。"
)

// MessagePlaceholder is stored as a message's transcript text until the
// transcription job replaces it.
const MessagePlaceholder = "(文字起こし中...)"
