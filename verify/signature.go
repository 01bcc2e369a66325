package verify

import (
	"bytes"
	"crypto"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/digitorus/pdf"
	"github.com/digitorus/pkcs7"
	"github.com/digitorus/signpdf/cms"
	"github.com/digitorus/signpdf/common"
	"github.com/digitorus/signpdf/revocation"
	"github.com/digitorus/timestamp"
)

var digestAlgorithms = map[string]crypto.Hash{
	pkcs7.OIDDigestAlgorithmSHA1.String():   crypto.SHA1,
	pkcs7.OIDDigestAlgorithmSHA256.String(): crypto.SHA256,
	pkcs7.OIDDigestAlgorithmSHA384.String(): crypto.SHA384,
	pkcs7.OIDDigestAlgorithmSHA512.String(): crypto.SHA512,
}

// VerifySignature processes a single signature dictionary.
func VerifySignature(v pdf.Value, file io.ReaderAt, fileSize int64) *Signer {
	signer := &Signer{}
	signer.Reason = v.Key("Reason").Text()
	signer.Location = v.Key("Location").Text()
	signer.ContactInfo = v.Key("ContactInfo").Text()

	// Signature time from the signature object, replaced by the signed
	// attribute when present.
	if sigTime := v.Key("M"); !sigTime.IsNull() {
		if t, err := parseDate(sigTime.Text()); err == nil {
			signer.SignatureTime = &t
		}
	}

	byte_range, err := readByteRangeValues(v)
	if err != nil {
		signer.ValidationErrors = append(signer.ValidationErrors, &ValidationError{Msg: err.Error()})
		return signer
	}
	signer.ByteRange = byte_range
	signer.CoversDocument = byte_range[2]+byte_range[3] == fileSize

	content, err := readByteRange(byte_range, file)
	if err != nil {
		signer.ValidationErrors = append(signer.ValidationErrors, &ValidationError{Msg: fmt.Sprintf("Failed to read ByteRange: %v", err)})
		return signer
	}

	rawSignature := []byte(v.Key("Contents").RawString())
	p7, err := pkcs7.Parse(rawSignature)
	if err != nil {
		signer.ValidationErrors = append(signer.ValidationErrors, &InvalidSignatureError{Msg: fmt.Sprintf("failed to parse PKCS#7: %v", err)})
		return signer
	}
	if len(p7.Signers) == 0 {
		signer.ValidationErrors = append(signer.ValidationErrors, &InvalidSignatureError{Msg: "signature contains no signer info"})
		return signer
	}

	var signingTime time.Time
	if err := p7.UnmarshalSignedAttribute(pkcs7.OIDAttributeSigningTime, &signingTime); err == nil {
		signer.SignatureTime = &signingTime
	}

	// Revocation data archived at signing time, absent for most signatures.
	var revInfo revocation.InfoArchival
	_ = p7.UnmarshalSignedAttribute(revocation.OIDAttributeInfoArchival, &revInfo)

	processCertificates(p7, signer, &revInfo)

	if err := processDigest(p7, content, rawSignature, signer); err != nil {
		signer.ValidationErrors = append(signer.ValidationErrors, &InvalidSignatureError{Msg: err.Error()})
		return signer
	}

	if err := processTimestamp(p7, signer); err != nil {
		signer.ValidationErrors = append(signer.ValidationErrors, &ValidationError{Msg: fmt.Sprintf("Failed to process timestamp: %v", err)})
	}

	p7.Content = content
	if err := p7.Verify(); err != nil {
		signer.ValidationErrors = append(signer.ValidationErrors, &InvalidSignatureError{Msg: fmt.Sprintf("signature verification failed: %v", err)})
		return signer
	}

	signer.ValidSignature = true
	return signer
}

// readByteRangeValues returns the four ByteRange integers of v.
func readByteRangeValues(v pdf.Value) ([4]int64, error) {
	var byte_range [4]int64

	br := v.Key("ByteRange")
	if br.Len() != 4 {
		return byte_range, fmt.Errorf("invalid ByteRange length: %d", br.Len())
	}

	for i := 0; i < 4; i++ {
		if br.Index(i).Kind() != pdf.Integer {
			return byte_range, fmt.Errorf("ByteRange entry %d is not an integer, the signature was never completed", i)
		}
		byte_range[i] = br.Index(i).Int64()
		if byte_range[i] < 0 {
			return byte_range, fmt.Errorf("negative ByteRange entry %d", i)
		}
	}

	return byte_range, nil
}

// readByteRange reads the content defined by ByteRange.
func readByteRange(byte_range [4]int64, file io.ReaderAt) ([]byte, error) {
	parts := []io.Reader{
		io.NewSectionReader(file, byte_range[0], byte_range[1]),
		io.NewSectionReader(file, byte_range[2], byte_range[3]),
	}

	content := make([]byte, byte_range[1]+byte_range[3])

	_, err := io.ReadFull(io.MultiReader(parts...), content)
	if err != nil {
		return nil, fmt.Errorf("failed to read signed content: %v", err)
	}

	return content, nil
}

// processDigest compares the message digest attribute with the digest of the
// signed bytes.
func processDigest(p7 *pkcs7.PKCS7, content []byte, rawSignature []byte, signer *Signer) error {
	oid := p7.Signers[0].DigestAlgorithm.Algorithm
	hash, ok := digestAlgorithms[oid.String()]
	if !ok || !hash.Available() {
		return fmt.Errorf("unsupported digest algorithm %v", oid)
	}
	signer.HashAlgorithm = hash.String()

	h := hash.New()
	h.Write(content)
	documentHash := h.Sum(nil)
	signer.DocumentHash = hex.EncodeToString(documentHash)

	signatureHash := sha256.Sum256(p7.Signers[0].EncryptedDigest)
	signer.SignatureHash = hex.EncodeToString(signatureHash[:])

	messageDigest, err := cms.MessageDigest(rawSignature)
	if err != nil {
		return err
	}
	if !bytes.Equal(messageDigest, documentHash) {
		return fmt.Errorf("message digest does not match the signed bytes")
	}

	return nil
}

// processCertificates records the embedded certificates, their archived
// revocation status and the signer name.
func processCertificates(p7 *pkcs7.PKCS7, signer *Signer, revInfo *revocation.InfoArchival) {
	signerInfo := p7.Signers[0]

	for _, cert := range p7.Certificates {
		isSigner := cert.SerialNumber.Cmp(signerInfo.IssuerAndSerialNumber.SerialNumber) == 0 &&
			bytes.Equal(cert.RawIssuer, signerInfo.IssuerAndSerialNumber.IssuerName.FullBytes)

		if isSigner {
			signer.Name = cert.Subject.CommonName
		}

		status := revInfo.Status(cert)
		if isSigner && status == revocation.Revoked {
			signer.ValidationErrors = append(signer.ValidationErrors, &ValidationError{Msg: "signing certificate is revoked according to the archived revocation data"})
		}

		signer.Certificates = append(signer.Certificates, common.Certificate{
			Certificate:      cert,
			Signer:           isSigner,
			NotBefore:        cert.NotBefore,
			NotAfter:         cert.NotAfter,
			RevocationStatus: status.String(),
		})
	}
}

// processTimestamp processes timestamp information from the signature.
func processTimestamp(p7 *pkcs7.PKCS7, signer *Signer) error {
	for _, s := range p7.Signers {
		// Timestamp - RFC 3161 id-aa-timeStampToken
		for _, attr := range s.UnauthenticatedAttributes {
			if !attr.Type.Equal(cms.OIDAttributeTimeStampToken) {
				continue
			}

			ts, err := timestamp.Parse(attr.Value.Bytes)
			if err != nil {
				return fmt.Errorf("failed to parse timestamp: %v", err)
			}

			signer.TimeStamp = ts

			// Verify timestamp hash
			h := signer.TimeStamp.HashAlgorithm.New()
			h.Write(s.EncryptedDigest)

			if !bytes.Equal(h.Sum(nil), signer.TimeStamp.HashedMessage) {
				return fmt.Errorf("timestamp hash does not match")
			}
			break
		}
	}
	return nil
}
