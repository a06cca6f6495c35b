package game

import (
	"fmt"

	"github.com/ledgerline/ledgerline-server/internal/game/card"
	"github.com/ledgerline/ledgerline-server/internal/game/choice"
	"github.com/ledgerline/ledgerline-server/internal/game/discount"
)

// EffectKind enumerates every card and hero effect the engine knows.
type EffectKind int

const (
	EffectNone EffectKind = iota

	// Actions
	EffectDrawTwo
	EffectSeedFunding
	EffectRestock
	EffectLiquidate
	EffectFlashSale
	EffectMarketResearch
	EffectPivot
	EffectBulkOrder
	EffectEfficiencyDrive
	EffectHiringSpree
	EffectQuarterlyPush
	EffectReinvest
	EffectHostileBid
	EffectDoubleDown
	EffectLongTermContract
	EffectViralCampaign
	EffectAudit
	EffectInsurance
	EffectStockpile
	EffectBigLaunch
	EffectCopycat
	EffectAngelRound

	// Board passives
	EffectSteadyIncome
	EffectWarehouse
	EffectVisualIdentity
	EffectSalesRep
	EffectKeepTheLightsOn
	EffectAnalyticsSuite
	EffectSubscriptionBox

	// Board discount sources
	EffectSerialOperator
	EffectProcurementLead
	EffectMorningStandup

	// Reactive
	EffectHypeMan
	EffectProductManager
	EffectTinkerer

	// Heroes
	EffectFounderGrit
	EffectBrandVision
	EffectAutomationPipeline
	EffectDealmakerLeverage

	numEffectKinds
)

var effectNames = [numEffectKinds]string{
	EffectDrawTwo:          "draw_two",
	EffectSeedFunding:      "seed_funding",
	EffectRestock:          "restock",
	EffectLiquidate:        "liquidate",
	EffectFlashSale:        "flash_sale",
	EffectMarketResearch:   "market_research",
	EffectPivot:            "pivot",
	EffectBulkOrder:        "bulk_order",
	EffectEfficiencyDrive:  "efficiency_drive",
	EffectHiringSpree:      "hiring_spree",
	EffectQuarterlyPush:    "quarterly_push",
	EffectReinvest:         "reinvest",
	EffectHostileBid:       "hostile_bid",
	EffectDoubleDown:       "double_down",
	EffectLongTermContract: "long_term_contract",
	EffectViralCampaign:    "viral_campaign",
	EffectAudit:            "audit",
	EffectInsurance:        "insurance",
	EffectStockpile:        "stockpile",
	EffectBigLaunch:        "big_launch",
	EffectCopycat:          "copycat",
	EffectAngelRound:       "angel_round",

	EffectSteadyIncome:    "steady_income",
	EffectWarehouse:       "warehouse",
	EffectVisualIdentity:  "visual_identity",
	EffectSalesRep:        "sales_rep",
	EffectKeepTheLightsOn: "keep_the_lights_on",
	EffectAnalyticsSuite:  "analytics_suite",
	EffectSubscriptionBox: "subscription_box",

	EffectSerialOperator:  discount.EffectSerialOperator,
	EffectProcurementLead: discount.EffectProcurementLead,
	EffectMorningStandup:  discount.EffectMorningStandup,

	EffectHypeMan:        "hype_man",
	EffectProductManager: "product_manager",
	EffectTinkerer:       "tinkerer",

	EffectFounderGrit:        "founder_grit",
	EffectBrandVision:        "brand_vision",
	EffectAutomationPipeline: "automation_pipeline",
	EffectDealmakerLeverage:  "dealmaker_leverage",
}

func (k EffectKind) String() string {
	if k > EffectNone && k < numEffectKinds {
		return effectNames[k]
	}
	return fmt.Sprintf("EFFECT_%d", int(k))
}

// Family groups effects by how the engine reaches them.
type Family int

const (
	FamilyUnset Family = iota
	FamilyAction
	FamilyPassive
	FamilyDiscount
	FamilyReactive
	FamilyHero
)

var familyNames = map[Family]string{
	FamilyUnset:    "UNSET",
	FamilyAction:   "ACTION",
	FamilyPassive:  "PASSIVE",
	FamilyDiscount: "DISCOUNT",
	FamilyReactive: "REACTIVE",
	FamilyHero:     "HERO",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FAMILY_%d", int(f))
}

// Resolver runs an effect for the acting player. src is nil for hero abilities.
type Resolver func(e *Engine, gs *GameState, p *PlayerState, src *card.Card)

// ReactiveResolver runs when played enters play while self is on the board.
type ReactiveResolver func(e *Engine, gs *GameState, p *PlayerState, self, played *card.Card)

// Continuation applies the deferred mutation of an answered choice.
// index is a validated index into pc, or choice.Done for a finished multi-select.
type Continuation func(e *Engine, gs *GameState, p *PlayerState, pc *choice.PendingChoice, index int)

// Handlers is the registry entry of one effect kind.
type Handlers struct {
	Family   Family
	OnPlay   Resolver
	Passive  Resolver
	Reactive ReactiveResolver
	Continue Continuation
	// AlwaysAsk forces a choice even with a single candidate.
	AlwaysAsk bool
}

var (
	registry     [numEffectKinds]Handlers
	effectByName = make(map[string]EffectKind, numEffectKinds)
)

func init() {
	for kind := EffectKind(1); kind < numEffectKinds; kind++ {
		if name := effectNames[kind]; name != "" {
			effectByName[name] = kind
		}
	}
}

func register(kind EffectKind, h Handlers) {
	if kind <= EffectNone || kind >= numEffectKinds {
		panic(fmt.Sprintf("register: effect kind %d out of range", int(kind)))
	}
	if registry[kind].Family != FamilyUnset {
		panic(fmt.Sprintf("register: effect %s registered twice", kind))
	}
	registry[kind] = h
}

// LookupEffect resolves a wire key to its kind.
func LookupEffect(key string) (EffectKind, bool) {
	kind, ok := effectByName[key]
	return kind, ok
}

// EffectKeys returns every registered wire key in declaration order.
func EffectKeys() []string {
	keys := make([]string, 0, numEffectKinds)
	for kind := EffectKind(1); kind < numEffectKinds; kind++ {
		keys = append(keys, effectNames[kind])
	}
	return keys
}

