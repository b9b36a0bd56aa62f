// README: Common identifier type shared across modules.
package types

type ID string
