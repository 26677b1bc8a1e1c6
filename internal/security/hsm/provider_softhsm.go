//go:build softhsm

package hsm

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/miekg/pkcs11"

	"github.com/alovak/cardledger/internal/cardgen"
	"github.com/alovak/cardledger/internal/security"
)

// SoftHSMProvider derives verification codes with a 3DES MAC held inside a
// PKCS#11 token. Enabled with the softhsm build tag so default builds do not
// depend on pkcs11.
type SoftHSMProvider struct {
	libPath  string
	slotID   uint
	pin      string
	keyLabel string
	p11      *pkcs11.Ctx
	sess     pkcs11.SessionHandle
	key      pkcs11.ObjectHandle
}

func NewSoftHSMProvider(libPath string, slotID uint, pin, keyLabel string) *SoftHSMProvider {
	return &SoftHSMProvider{libPath: libPath, slotID: slotID, pin: pin, keyLabel: keyLabel}
}

func (p *SoftHSMProvider) Open() error {
	p.p11 = pkcs11.New(p.libPath)
	if p.p11 == nil {
		return fmt.Errorf("load pkcs11 lib failed")
	}
	if err := p.p11.Initialize(); err != nil {
		return err
	}
	sess, err := p.p11.OpenSession(pkcs11.SlotID(p.slotID), pkcs11.CKF_SERIAL_SESSION|pkcs11.CKF_RW_SESSION)
	if err != nil {
		_ = p.p11.Finalize()
		return err
	}
	p.sess = sess
	if err := p.p11.Login(p.sess, pkcs11.CKU_USER, p.pin); err != nil {
		_ = p.p11.CloseSession(p.sess)
		_ = p.p11.Finalize()
		return err
	}

	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, p.keyLabel),
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_SECRET_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_DES3),
	}
	if err := p.p11.FindObjectsInit(p.sess, template); err != nil {
		return err
	}
	objs, _, err := p.p11.FindObjects(p.sess, 1)
	_ = p.p11.FindObjectsFinal(p.sess)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		return fmt.Errorf("verification key not found by label=%s", p.keyLabel)
	}
	p.key = objs[0]
	return nil
}

func (p *SoftHSMProvider) Close() {
	if p.p11 != nil {
		if p.sess != 0 {
			_ = p.p11.Logout(p.sess)
			_ = p.p11.CloseSession(p.sess)
		}
		_ = p.p11.Finalize()
		p.p11.Destroy()
		p.p11 = nil
	}
}

func (p *SoftHSMProvider) RotationCode(pan string, index uint64, at time.Time, width int) (string, error) {
	pan = cardgen.NormalizePAN(pan)
	if pan == "" || !cardgen.IsDigits(pan) {
		return "", fmt.Errorf("pan must be digits only")
	}
	if width != 3 && width != 6 {
		width = 6
	}

	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], index)
	binary.BigEndian.PutUint64(buf[8:], uint64(at.UnixNano()))
	data := []byte(cardgen.LastN(pan, 12) + hex.EncodeToString(buf[:]))

	mac, err := p.mac(data)
	if err != nil {
		return "", err
	}
	return decimalize(mac, width)
}

func (p *SoftHSMProvider) mac(data []byte) ([]byte, error) {
	mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_DES3_MAC, nil)}
	if err := p.p11.SignInit(p.sess, mech, p.key); err != nil {
		return nil, err
	}
	return p.p11.Sign(p.sess, data)
}

// decimalize maps the MAC to n decimal digits: hex digits pass through,
// a..f fold to 0..5.
func decimalize(mac []byte, n int) (string, error) {
	hx := hex.EncodeToString(mac)
	if len(hx) < n {
		return "", fmt.Errorf("mac too short: %d hex digits for width %d", len(hx), n)
	}
	out := make([]byte, 0, n)
	for i := 0; i < len(hx) && len(out) < n; i++ {
		c := hx[i]
		if c >= '0' && c <= '9' {
			out = append(out, c)
		} else {
			out = append(out, '0'+(c-'a'+10)%10)
		}
	}
	return string(out), nil
}

var _ security.CodeProvider = (*SoftHSMProvider)(nil)
