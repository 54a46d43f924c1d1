// Package dag orders components by their declared dependencies.
//
// Resolve produces a deterministic startup order with a depth-first,
// three-color traversal: nodes are visited in the order they were added,
// dependencies in the order they were declared, and a back edge to a node
// still in progress is reported as a circular dependency naming the chain.
// Reverse of that order is the shutdown order.
//
// BuildLevels groups the same graph into tiers (Kahn's algorithm) where every
// node in a tier only depends on earlier tiers.
package dag
