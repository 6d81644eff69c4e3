package bot

// Menu choices. Incoming text must match them exactly.
const (
	ChoiceResult    = "Result(22-25)"
	ChoiceAdmitCard = "Admit Card(22-25)"
)

// CallbackCheckAnother is the raw callback data of the "Check another" button.
const CallbackCheckAnother = "check_another"

const (
	msgGreeting     = "Hi! %s, I'm your bot from LNMU."
	msgChoose       = "Please choose an option:"
	msgEnterRoll    = "Please enter your roll number for %s:"
	msgResultWait   = "Wait.. Aapka Result bhej raha hu😊"
	msgEnterMobile  = "Please enter your mobile number for Admit Card:"
	msgAdmitWait    = "Wait.. bhej raha hu Admit Card😊"
	msgShare        = "If you are happy with this bot then share with your friends😊"
	msgInvalidRoll  = "Please enter a valid Roll Number"
	msgInvalidAdmit = "Please enter a valid Roll/Mobile number."
	msgConnectivity = "There was an error connecting to the server. Please try again later."
	msgTryAgain     = "An error occurred. Please try again later."
	msgHelp         = "Send /start and pick Result(22-25) or Admit Card(22-25).\n" +
		"Then type your roll number (and your mobile number for an admit card) and I will send the PDF.\n" +
		"Send /cancel to start over."

	btnCheckAnother = "Check another"
)
