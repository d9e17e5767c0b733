package registration

import (
	"fmt"

	id "dasigov/pkg/domain"
)

// AttestationMessage is the exact string a registrant signs to prove control
// of the submitted wallet. The pipeline reconstructs it from the submission
// fields and verifies the signature against it; any drift between what the
// wallet displayed and what we rebuild here fails verification.
func AttestationMessage(name, externalKey string, addr id.Address) string {
	return fmt.Sprintf("I am %s (%s) and I control this wallet: %s", name, externalKey, addr)
}
