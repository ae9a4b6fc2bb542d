package keyterms

var fallbackKeyterms = []string{
	// healthcare
	"appointment", "reschedule", "follow-up", "consultation",
	"primary care", "specialist", "referral", "prescription",
	"Medicare", "Medicaid", "insurance", "copay", "deductible",
	"cardiology", "orthopedics", "nephrology", "oncology",
	"physical therapy", "occupational therapy", "dialysis",
	"blood pressure", "cholesterol", "diabetes", "Metformin",
	"MRI", "CT scan", "X-ray", "ultrasound", "lab work",
	// housing
	"Section 8", "housing voucher", "HUD", "subsidized housing",
	"affordable housing", "income verification", "lease agreement",
	"rental assistance", "LIHEAP", "weatherization",
	"housing authority", "case worker", "application status",
	"maintenance request", "property manager", "landlord",
	// scheduling
	"available", "morning", "afternoon", "Tuesday", "Thursday",
	"next week", "tomorrow", "confirm", "cancel", "waiting list",
	// benefits and services
	"Social Security", "disability", "SNAP", "food stamps",
	"home health aide", "visiting nurse", "transportation",
}

// Fallback returns the hand-curated list used until, or instead of, a
// generated one. Each call returns a fresh slice.
func Fallback() []string {
	return append([]string(nil), fallbackKeyterms...)
}
