package seed

import "github.com/lspl/gradereco/internal/domain"

func f64(v float64) *float64 { return &v }

// Products is the demo catalog.
var Products = []domain.Product{
	{
		Grade: "DieLube-3000", Division: domain.Str("Die Casting"), Category: domain.Str("Die Lube"),
		CompatibleProcess: domain.Str("GDC"), Metal: domain.Str("Al"),
		TempMinC: f64(200), TempMaxC: f64(420), Notes: "High lubricity; low residue",
	},
	{
		Grade: "Flux-GR-10", Division: domain.Str("Flux"), Category: domain.Str("Granular Flux"),
		CompatibleProcess: domain.Str("Melting/Holding"), Metal: domain.Str("Al"),
		TempMinC: f64(650), TempMaxC: f64(750), Notes: "Granular refining flux",
	},
	{
		Grade: "Forge-Lube-F1", Division: domain.Str("Forging"), Category: domain.Str("Forging Lube"),
		CompatibleProcess: domain.Str("Hot forging"), Metal: domain.Str("Steel"),
		TempMinC: f64(250), TempMaxC: f64(500), Notes: "Graphite-based",
	},
	{
		Grade: "Plunger-XL", Division: domain.Str("Die Casting"), Category: domain.Str("Plunger Lube"),
		CompatibleProcess: domain.Str("HPDC"), Metal: domain.Str("Al"),
		TempMinC: f64(150), TempMaxC: f64(400), Notes: "Extended tip life",
	},
	{
		Grade: "LadleCoat-RO", Division: domain.Str("Foundry"), Category: domain.Str("Ladle Coat"),
		CompatibleProcess: domain.Str("Pouring"), Metal: domain.Str("Al"),
		TempMinC: f64(650), TempMaxC: f64(750), Notes: "RO water recommended",
	},
}

// RnD is the demo engineering data.
var RnD = []domain.RnDRecord{
	{
		Grade:       "DieLube-3000",
		SpecSummary: domain.Str("Stable film at 350-420C"),
		Flags:       domain.Str("low-residue;fast-wetting"),
		Constraints: domain.Str("Water hardness < 120 ppm; RO/DM preferred"),
	},
	{
		Grade:       "Flux-GR-10",
		SpecSummary: domain.Str("Improves melt cleanliness"),
		Flags:       domain.Str("granular"),
		Constraints: domain.Str("Use at 0.2%-0.5% of melt"),
	},
}

// Trials is the demo field-trial history.
var Trials = []domain.TrialRecord{
	{
		CustomerName: domain.Str("Alpha Castings"), Grade: "DieLube-3000",
		Conditions: domain.Str("GDC Al 420C die temp"), Outcome: domain.Str("success"), Notes: domain.Str("Reduced soldering"),
	},
	{
		CustomerName: domain.Str("Bravo Foundry"), Grade: "Flux-GR-10",
		Conditions: domain.Str("650-720C"), Outcome: domain.Str("success"), Notes: domain.Str("Cleaner metal"),
	},
	{
		CustomerName: domain.Str("SteelForge Ltd"), Grade: "Forge-Lube-F1",
		Conditions: domain.Str("Die 300C"), Outcome: domain.Str("mixed"), Notes: domain.Str("Improved die life but smoke"),
	},
}

// Complaints is the demo complaint log.
var Complaints = []domain.ComplaintRecord{
	{
		CustomerName: domain.Str("Alpha Castings"), Grade: "Plunger-XL",
		Conditions: domain.Str("HPDC"), Issue: domain.Str("Residue build-up"), Severity: domain.Str("low"),
	},
}

// Tickets is the demo ticket history.
var Tickets = []domain.Ticket{
	{
		TicketID:           domain.Str("T-1001"),
		Division:           domain.Str("Die Casting"),
		Category:           domain.Str("Die Lube"),
		RequirementDetails: domain.Str("Al GDC, die temp 380-400C, RO water"),
		ProposedGrade:      domain.Str("DieLube-3000"),
		ProposedReason:     domain.Str("Past success at similar temps"),
		CustomerName:       domain.Str("Alpha Castings"),
		Priority:           domain.Str("High"),
	},
	{
		TicketID:           domain.Str("T-1002"),
		Division:           domain.Str("Flux"),
		Category:           domain.Str("Granular Flux"),
		RequirementDetails: domain.Str("Melting 680C, AA6082"),
		ProposedGrade:      domain.Str("Flux-GR-10"),
		ProposedReason:     domain.Str("Cleanliness improvement"),
		CustomerName:       domain.Str("Bravo Foundry"),
		Priority:           domain.Str("Medium"),
	},
}
