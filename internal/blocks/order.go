package blocks

import "math"

// Order is the precedence class of an emitted expression, using the
// editor's JavaScript table. Lower binds tighter.
type Order float64

const (
	OrderAtomic         Order = 0
	OrderNew            Order = 1.1
	OrderMember         Order = 1.2
	OrderFunctionCall   Order = 2
	OrderIncrement      Order = 3
	OrderDecrement      Order = 3
	OrderBitwiseNot     Order = 4.1
	OrderUnaryPlus      Order = 4.2
	OrderUnaryNegation  Order = 4.3
	OrderLogicalNot     Order = 4.4
	OrderTypeof         Order = 4.5
	OrderVoid           Order = 4.6
	OrderDelete         Order = 4.7
	OrderAwait          Order = 4.8
	OrderExponentiation Order = 5.0
	OrderMultiplication Order = 5.1
	OrderDivision       Order = 5.2
	OrderModulus        Order = 5.3
	OrderSubtraction    Order = 6.1
	OrderAddition       Order = 6.2
	OrderBitwiseShift   Order = 7
	OrderRelational     Order = 8
	OrderIn             Order = 8
	OrderInstanceof     Order = 8
	OrderEquality       Order = 9
	OrderBitwiseAnd     Order = 10
	OrderBitwiseXor     Order = 11
	OrderBitwiseOr      Order = 12
	OrderLogicalAnd     Order = 13
	OrderLogicalOr      Order = 14
	OrderConditional    Order = 15
	OrderAssignment     Order = 16
	OrderYield          Order = 17
	OrderComma          Order = 18
	OrderNone           Order = 99
)

// orderOverrides are (outer, inner) pairs that need no parentheses even
// though they share a precedence class, e.g. a + (b + c) -> a + b + c.
var orderOverrides = [][2]Order{
	{OrderFunctionCall, OrderMember},
	{OrderFunctionCall, OrderFunctionCall},
	{OrderMember, OrderMember},
	{OrderMember, OrderFunctionCall},
	{OrderLogicalNot, OrderLogicalNot},
	{OrderMultiplication, OrderMultiplication},
	{OrderAddition, OrderAddition},
	{OrderLogicalAnd, OrderLogicalAnd},
	{OrderLogicalOr, OrderLogicalOr},
}

// needsParens reports whether an inner fragment must be wrapped when
// substituted at a site that binds at outer.
func needsParens(outer, inner Order) bool {
	outerClass := math.Floor(float64(outer))
	innerClass := math.Floor(float64(inner))
	if outerClass > innerClass {
		return false
	}
	if outerClass == innerClass && (outerClass == 0 || outerClass == 99) {
		return false
	}
	for _, o := range orderOverrides {
		if o[0] == outer && o[1] == inner {
			return false
		}
	}
	return true
}
