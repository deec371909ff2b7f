package safety

// protectedKeywords are matched whole-word, case-insensitive, against
// subject and preview text. Any match protects the message.
var protectedKeywords = []string{
	// financial
	"invoice", "receipt", "confirmation", "order", "bank", "payment",
	"statement", "transaction", "tax", "irs", "w2", "w-2", "1099",
	// security and authentication
	"verification", "verification code", "verify your", "security",
	"security alert", "unusual activity", "suspicious activity", "alert",
	"password", "password reset", "reset password", "change password",
	"2fa", "two-factor", "two factor", "otp", "one-time password",
	"verify", "authenticate", "authentication", "sign-in", "sign in",
	"login", "log in", "access code", "confirmation code",
	"credential", "credentials",
	// healthcare
	"insurance", "healthcare", "medical", "prescription", "doctor", "hospital",
	// legal
	"legal", "court", "subpoena", "lawsuit", "attorney", "lawyer",
	// government
	"government", "dmv", "passport", "visa", "immigration",
}

// protectedDomains never receive destructive actions, including any
// subdomain. The .gov and .mil TLDs are handled separately.
var protectedDomains = []string{
	// banks
	"chase.com", "bankofamerica.com", "wellsfargo.com", "citibank.com",
	"usbank.com", "pnc.com", "capitalone.com", "tdbank.com", "schwab.com",
	"ally.com",
	// payments
	"paypal.com", "venmo.com", "stripe.com", "square.com", "zelle.com",
	"applepay.com",
	// investment
	"fidelity.com", "vanguard.com", "etrade.com", "robinhood.com",
	"coinbase.com", "betterment.com", "wealthfront.com",
	// tax
	"turbotax.com", "hrblock.com", "taxact.com", "freetaxusa.com",
	// health insurance
	"anthem.com", "uhc.com", "aetna.com", "cigna.com", "bluecross.com",
	"blueshield.com", "humana.com", "kaiserpermanente.org",
	// credit bureaus
	"experian.com", "equifax.com", "transunion.com",
	// carriers and utilities
	"att.com", "verizon.com", "tmobile.com", "sprint.com", "comcast.com",
	"spectrum.com",
	// government
	"irs.gov", "usps.com", "usps.gov", "ssa.gov", "state.gov",
}

// protectedSenderPatterns match addresses used for security, fraud and
// verification traffic.
var protectedSenderPatterns = []string{
	`noreply@.*bank.*\.com`,
	`security@.*\.com`,
	`alert@.*\.com`,
	`alerts@.*\.com`,
	`verification@.*\.com`,
	`verify@.*\.com`,
	`no-?reply@.*bank.*`,
	`notifications?@.*bank.*`,
	`fraud@.*`,
	`disputes?@.*`,
}

var junkSenderPatterns = []string{
	`^noreply@`,
	`^no-reply@`,
	`^no\.reply@`,
	`^donotreply@`,
	`^do-not-reply@`,
	`^newsletter(s)?@`,
	`^marketing@`,
	`^promo(tions)?@`,
	`^offers@`,
	`^deals@`,
	`^sales@`,
	`^updates@`,
	`^notifications@`,
	`^news@`,
	`^info@`,
	`^hello@.*\.(com|net|org)`,
	`^hi@.*\.(com|net|org)`,
}

var junkSubjectPatterns = []string{
	`\d+%\s*off`,
	`sale`,
	`deal(s)?`,
	`offer(s)?`,
	`discount`,
	`coupon`,
	`promo`,
	`promotion`,
	`save\s*\$`,
	`free shipping`,
	`limited time`,
	`newsletter`,
	`weekly digest`,
	`daily update`,
	`monthly roundup`,
	`this week`,
	`unsubscribe`,
}
