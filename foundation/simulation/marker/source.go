package marker

// CirculationAdd names a mechanism that adds circulation.
type CirculationAdd string

// Set of mechanisms that add circulation.
const (
	CirculationTerraGrowth CirculationAdd = "TerraGrowth"
)

// CirculationRemove names a mechanism that removes circulation.
type CirculationRemove string

// Set of mechanisms that remove circulation.
const (
	TransactionalTaxes CirculationRemove = "TransactionalTaxes"
	MicropaymentTaxes  CirculationRemove = "MicropaymentTaxes"
	BitcoinFusion      CirculationRemove = "BitcoinFusion"
	ReserveSpend       CirculationRemove = "ReserveSpend"
)

// CapitalAdd names a mechanism that adds capital.
type CapitalAdd string

// Set of mechanisms that add capital.
const (
	CapitalTerraGrowth CapitalAdd = "TerraGrowth"
	CertaintyGreed     CapitalAdd = "CertaintyGreed"
	SpeculativeGreed   CapitalAdd = "SpeculativeGreed"
)

// CapitalRemove names a mechanism that removes capital.
type CapitalRemove string

// Set of mechanisms that remove capital.
const (
	TerraCollapse CapitalRemove = "TerraCollapse"
)

// Seigniorage names a mechanism whose effect was clawed back because it
// would have pushed the price above par.
type Seigniorage string

// Set of mechanisms that can be clawed back, in claw back order.
const (
	SeigniorageReserveSpend       Seigniorage = Seigniorage(ReserveSpend)
	SeigniorageTransactionalTaxes Seigniorage = Seigniorage(TransactionalTaxes)
	SeigniorageMicropaymentTaxes  Seigniorage = Seigniorage(MicropaymentTaxes)
	SeigniorageSpeculativeGreed   Seigniorage = Seigniorage(SpeculativeGreed)
	SeigniorageCertaintyGreed     Seigniorage = Seigniorage(CertaintyGreed)
)

// Every source of each kind, in accounting order.
var (
	CirculationAdds    = []CirculationAdd{CirculationTerraGrowth}
	CirculationRemoves = []CirculationRemove{TransactionalTaxes, MicropaymentTaxes, BitcoinFusion, ReserveSpend}
	CapitalAdds        = []CapitalAdd{CapitalTerraGrowth, CertaintyGreed, SpeculativeGreed}
	CapitalRemoves     = []CapitalRemove{TerraCollapse}
	Seigniorages       = []Seigniorage{SeigniorageReserveSpend, SeigniorageTransactionalTaxes, SeigniorageMicropaymentTaxes, SeigniorageSpeculativeGreed, SeigniorageCertaintyGreed}
)
