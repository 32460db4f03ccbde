// Package models defines the core domain models for the paysplit
// settlement engine.
//
// # Entities
//
//   - Group: reusable roster of member addresses owned by one address
//   - GroupPayment: a split of one amount across a group's members,
//     reachable through a unique link code
//   - MemberStatus: per-member settlement record for a group payment
//   - RequestPayment: a single-counterparty payment obligation, created
//     directly or fanned out from a group payment
//   - SchedulePayment: a recurring payment definition with frequency,
//     execution cap, and end-date policy
//
// # Design Principles
//
//  1. Callers are identified by wallet address strings; there are no
//     user accounts inside the engine.
//  2. Relationships use ID strings instead of pointers to avoid
//     circular references.
//  3. Quick Share placeholder slots are a tagged variant (empty or
//     occupied), never a sentinel address.
//  4. Status fields are closed string enums; transitions are enforced
//     by the service layer, not by the models.
package models
