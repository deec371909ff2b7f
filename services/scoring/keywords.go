package scoring

// Keywords that mark a message as important, matched against subject and
// snippet. The first match wins, so more specific financial and security
// terms come first.
var importantKeywords = []string{
	"receipt",
	"invoice",
	"order confirmation",
	"payment",
	"statement",
	"tax",
	"refund",
	"verification code",
	"security alert",
	"password reset",
	"two-factor",
	"confirm your",
	"appointment",
	"reservation",
	"booking confirmation",
	"itinerary",
	"boarding pass",
	"shipping",
	"delivered",
	"your account",
	"urgent",
	"action required",
	"legal",
	"contract",
}

var commercialKeywords = []string{
	"sale",
	"% off",
	"discount",
	"deal",
	"offer",
	"coupon",
	"promo",
	"free shipping",
	"limited time",
	"clearance",
	"black friday",
	"cyber monday",
	"newsletter",
	"weekly digest",
	"new arrivals",
	"don't miss",
	"last chance",
	"exclusive",
}
