// Package models defines the core domain records for the group savings backend.
//
// # Records
//
//   - User: account with a system role (user or admin) and an active flag
//   - Group: savings pool with a target, contribution cadence and member cap
//   - Membership: a user's role and active status inside one group
//   - Transaction: ledger entry (contribution or withdrawal) with a status
//   - Notification: in-app notice created as a side effect of ledger events
//
// # Design Principles
//
// 1. **Plain data**: records carry no behavior that touches storage
// 2. **IDs, not pointers**: relationships are expressed with ID strings
// 3. **Derived balances**: no balance is stored; the ledger is the only source of truth
// 4. **Unix timestamps**: all times are seconds since epoch, 0 meaning unset
package models
